// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error handling for the jmake CLI.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds one Markdown explanation per
// error class, rendered with glamour by `jmake explain`.
package issue
