// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// GOOS name constants for runtime.GOOS comparisons.
const (
	goosWindows = "windows"
	goosDarwin  = "darwin"
)

// Platform names as they appear in workspace descriptions.
const (
	Win32 OS = "win32"
	MacOS OS = "macos"
	Linux OS = "linux"
)

// ErrInvalidOS is the sentinel error wrapped by InvalidOSError.
var ErrInvalidOS = errors.New("invalid platform name")

type (
	// OS identifies a host operating system family ("win32", "linux", "macos", ...).
	OS string

	// InvalidOSError is returned when an OS value is empty or malformed.
	InvalidOSError struct {
		Value OS
	}

	// Context is the host a generation run targets. It is immutable for the
	// duration of the run.
	Context struct {
		OS   OS
		Arch string
	}
)

// Error implements the error interface.
func (e *InvalidOSError) Error() string {
	return fmt.Sprintf("invalid platform name %q", e.Value)
}

// Unwrap returns ErrInvalidOS for errors.Is compatibility.
func (e *InvalidOSError) Unwrap() error { return ErrInvalidOS }

// Validate reports whether o is a usable platform name: non-empty, lowercase,
// without whitespace.
func (o OS) Validate() error {
	s := string(o)
	if s == "" || s != strings.ToLower(s) || strings.ContainsAny(s, " \t\n") {
		return &InvalidOSError{Value: o}
	}
	return nil
}

// String returns the platform name.
func (o OS) String() string { return string(o) }

// FromGOOS maps a runtime.GOOS value onto the platform vocabulary.
// Unknown values pass through unchanged.
func FromGOOS(goos string) OS {
	switch goos {
	case goosWindows:
		return Win32
	case goosDarwin:
		return MacOS
	default:
		return OS(goos)
	}
}

// Detect returns the Context of the running process. Call it once per run.
func Detect() Context {
	return Context{OS: FromGOOS(runtime.GOOS), Arch: runtime.GOARCH}
}

// String renders the context as "os/arch".
func (c Context) String() string {
	if c.Arch == "" {
		return string(c.OS)
	}
	return string(c.OS) + "/" + c.Arch
}

// Known returns the platform names with dedicated handling, sorted.
func Known() []OS {
	out := []OS{Linux, MacOS, Win32}
	slices.Sort(out)
	return out
}
