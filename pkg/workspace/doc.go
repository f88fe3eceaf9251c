// SPDX-License-Identifier: MPL-2.0

// Package workspace is the build-description object model and its
// resolution pipeline.
//
// A Workspace holds an ordered list of Projects. Each Project declares
// source and module patterns, a base configuration (settings, defines and
// include paths), named variant FilterSets, dependencies and platform rules.
// A Generator turns a Workspace into a frozen BuildGraph: for every project,
// in declaration order, it computes the effective configuration for the
// requested variant, resolves sources and module files, merges dependency
// requirements, orders the module interface units and applies the platform
// rules matching the host Context. Any failure aborts the run with a
// ProjectError naming the project.
//
// External work is reached through small interfaces: Fetcher for package
// dependencies, modgraph.Scanner for module metadata and GraphEmitter for
// backend output.
package workspace
