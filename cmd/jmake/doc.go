// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the jmake command line.
//
// The command tree is built by NewRootCommand around an App, the composition
// root holding the config provider, the extension registry and the output
// streams. Execute runs the tree through fang.
package cmd
