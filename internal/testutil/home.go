// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// SetHomeDir points the user home directory at dir for the rest of the test:
// USERPROFILE on Windows, HOME elsewhere. XDG_CONFIG_HOME and XDG_CACHE_HOME
// are cleared so lookups fall back to the new home.
func SetHomeDir(t testing.TB, dir string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		MustSetenv(t, "USERPROFILE", dir)
		return
	}
	MustSetenv(t, "HOME", dir)
	MustSetenv(t, "XDG_CONFIG_HOME", "")
	MustSetenv(t, "XDG_CACHE_HOME", "")
}
