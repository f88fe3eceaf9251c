// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when workspace files change.
//
// Events are filtered through doublestar patterns and coalesced over a
// debounce window, so a burst of editor writes yields one callback with the
// full set of changed paths. Callbacks never overlap.
package watch
