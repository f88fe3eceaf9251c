// SPDX-License-Identifier: MPL-2.0

// Package platform describes the host a generation run targets.
//
// A Context is built once per invocation (normally by Detect) and passed
// explicitly to everything that conditions on the host; nothing below the
// CLI reads runtime.GOOS or the environment on its own. Predicates select
// rules by host OS and architecture.
//
// The package also carries the Windows reserved-name check used to reject
// project names that cannot become file names on every host.
package platform
