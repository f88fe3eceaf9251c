// SPDX-License-Identifier: MPL-2.0

package modgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModuleCycle is the sentinel error wrapped by ModuleCycleError.
	ErrModuleCycle = errors.New("module import cycle")
	// ErrDuplicateModule is the sentinel error wrapped by DuplicateModuleError.
	ErrDuplicateModule = errors.New("duplicate module")
	// ErrNoModuleDeclaration is returned by SourceScanner when a file declares no module.
	ErrNoModuleDeclaration = errors.New("no module declaration")
)

type (
	// ModuleCycleError names a closed import path among a project's modules.
	ModuleCycleError struct {
		// Cycle repeats its first module at the end (e.g. [a b a]).
		Cycle []string
	}

	// DuplicateModuleError is returned when two module files declare the same name.
	DuplicateModuleError struct {
		Name   string
		First  string
		Second string
	}

	// ScanError wraps a Scanner failure with the offending file.
	ScanError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *ModuleCycleError) Error() string {
	return fmt.Sprintf("module import cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrModuleCycle for errors.Is compatibility.
func (e *ModuleCycleError) Unwrap() error { return ErrModuleCycle }

// Error implements the error interface.
func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q declared by both %s and %s", e.Name, e.First, e.Second)
}

// Unwrap returns ErrDuplicateModule for errors.Is compatibility.
func (e *DuplicateModuleError) Unwrap() error { return ErrDuplicateModule }

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("scan module file %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying scanner error.
func (e *ScanError) Unwrap() error { return e.Err }
