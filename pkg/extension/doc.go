// SPDX-License-Identifier: MPL-2.0

// Package extension holds project-specific build actions that run beside
// generation.
//
// A Command is registered once in a Registry under a unique name. The CLI
// exposes each registered command as a subcommand and calls Dispatch with
// the loaded workspace; handlers read the workspace but never modify it and
// do not depend on a generation run having happened.
package extension
