// SPDX-License-Identifier: MPL-2.0

// Package jmakefile loads jmake.cue workspace descriptions.
//
// A description is validated against an embedded CUE schema and converted
// into a workspace.Workspace rooted at the file's directory:
//
//	workspace: "jolly"
//	rules: [{name: "win32", os: ["win32"], defines: {JOLLY_WIN32: 1, WIN32_LEAN_AND_MEAN: 1}}]
//	projects: [{
//		name:    "engine"
//		kind:    "executable"
//		sources: ["src/**/*.cpp", "src/**/*.h"]
//		filters: debug: settings: debug: true
//	}]
package jmakefile
