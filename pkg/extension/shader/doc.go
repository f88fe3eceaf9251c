// SPDX-License-Identifier: MPL-2.0

// Package shader compiles the GLSL shaders of a workspace to SPIR-V.
//
// Every .vert and .frag file directly inside the workspace's assets
// directory is compiled as `compiler input -o input.spv`. Compilations run
// concurrently up to a job limit; a failing file does not stop the others.
// Each file's captured compiler output is written as one block once its
// process has exited. Cancelling the context abandons files that have not
// started yet; processes already running finish.
package shader
