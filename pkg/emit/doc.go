// SPDX-License-Identifier: MPL-2.0

// Package emit writes a resolved workspace.BuildGraph for native build
// backends.
//
// Ninja renders a build.ninja that precompiles every project's module
// interface units before its plain translation units, then links the
// project's artifact. Descriptor writes the whole graph as TOML for tools
// that drive their own backend. Both implement workspace.GraphEmitter.
package emit
