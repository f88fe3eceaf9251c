// SPDX-License-Identifier: MPL-2.0

// Package pathresolve turns project-relative glob patterns into absolute,
// deterministically ordered file lists.
//
// Patterns use doublestar syntax ("src/**/*.cpp"). Each pattern's matches
// are sorted on their own before the per-pattern lists are concatenated in
// declaration order, so the result never depends on directory enumeration
// order. A path matched by several patterns keeps its first position.
package pathresolve
