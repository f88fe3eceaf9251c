// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include filesystem fixtures (MustWriteFile, WriteTree),
// environment management (MustSetenv, SetHomeDir) and path helpers (Abs).
package testutil
