// SPDX-License-Identifier: MPL-2.0

// Package fetch obtains package dependencies for workspace generation.
//
// A package is a directory holding a jmakepkg.cue manifest that lists the
// include paths, defines and link targets consumers need, and optionally
// the packages it requires in turn. Router implements workspace.Fetcher:
// it sends local sources (plain paths and file:// URLs) to LocalFetcher and
// everything else to GitFetcher, reads the manifest and flattens transitive
// requirements so the consumer sees a single Requirements value.
package fetch
