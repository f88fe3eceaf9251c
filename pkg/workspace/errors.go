// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateProject is the sentinel error wrapped by DuplicateProjectError.
	ErrDuplicateProject = errors.New("duplicate project")
	// ErrUnknownFilter is the sentinel error wrapped by UnknownFilterError.
	ErrUnknownFilter = errors.New("unknown filter variant")
	// ErrUnknownBuiltin is the sentinel error wrapped by UnknownBuiltinError.
	ErrUnknownBuiltin = errors.New("unknown builtin dependency")
	// ErrDependencyFetch is the sentinel error wrapped by DependencyFetchError.
	ErrDependencyFetch = errors.New("dependency fetch failed")
	// ErrDefineConflict is the sentinel error wrapped by DefineConflictError.
	ErrDefineConflict = errors.New("conflicting define")
	// ErrSourceModuleOverlap is the sentinel error wrapped by SourceModuleOverlapError.
	ErrSourceModuleOverlap = errors.New("file is both a source and a module")
	// ErrInvalidProject is the sentinel error wrapped by InvalidProjectError.
	ErrInvalidProject = errors.New("invalid project")
	// ErrNoFetcher is returned when a package dependency is resolved without a Fetcher.
	ErrNoFetcher = errors.New("no fetcher configured for package dependencies")
	// ErrEmptyFetchResult is returned when a Fetcher reports success without a result.
	ErrEmptyFetchResult = errors.New("fetcher returned no result")
)

type (
	// DuplicateProjectError is returned when a project name is added twice.
	DuplicateProjectError struct {
		Name string
	}

	// UnknownFilterError is returned when a project has no FilterSet for the
	// requested variant.
	UnknownFilterError struct {
		Project string
		Variant string
	}

	// UnknownBuiltinError is returned when a builtin dependency identifier is
	// not in the BuiltinRegistry.
	UnknownBuiltinError struct {
		Identifier string
	}

	// DependencyFetchError wraps a Fetcher failure for a package dependency.
	DependencyFetchError struct {
		Identifier string
		Source     string
		Err        error
	}

	// DefineConflictError is returned when a define arrives twice with
	// different values.
	DefineConflictError struct {
		Name     string
		Existing string
		Incoming string
		// Origin names what introduced the incoming value (a dependency or a rule).
		Origin string
	}

	// SourceModuleOverlapError is returned when a resolved path is matched by
	// both the source and the module patterns of one project.
	SourceModuleOverlapError struct {
		Path string
	}

	// InvalidProjectError describes a structurally invalid project declaration.
	InvalidProjectError struct {
		Name   string
		Reason string
	}

	// ProjectError annotates a generation failure with the project it
	// occurred in.
	ProjectError struct {
		Project string
		Err     error
	}
)

// Error implements the error interface.
func (e *DuplicateProjectError) Error() string {
	return fmt.Sprintf("project %q is already declared in the workspace", e.Name)
}

// Unwrap returns ErrDuplicateProject for errors.Is compatibility.
func (e *DuplicateProjectError) Unwrap() error { return ErrDuplicateProject }

// Error implements the error interface.
func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("project %q has no filter for variant %q", e.Project, e.Variant)
}

// Unwrap returns ErrUnknownFilter for errors.Is compatibility.
func (e *UnknownFilterError) Unwrap() error { return ErrUnknownFilter }

// Error implements the error interface.
func (e *UnknownBuiltinError) Error() string {
	return fmt.Sprintf("unknown builtin dependency %q", e.Identifier)
}

// Unwrap returns ErrUnknownBuiltin for errors.Is compatibility.
func (e *UnknownBuiltinError) Unwrap() error { return ErrUnknownBuiltin }

// Error implements the error interface.
func (e *DependencyFetchError) Error() string {
	return fmt.Sprintf("fetch dependency %q from %s: %v", e.Identifier, e.Source, e.Err)
}

// Unwrap returns both ErrDependencyFetch and the fetcher error.
func (e *DependencyFetchError) Unwrap() []error { return []error{ErrDependencyFetch, e.Err} }

// Error implements the error interface.
func (e *DefineConflictError) Error() string {
	return fmt.Sprintf("define %s=%q from %s conflicts with existing value %q",
		e.Name, e.Incoming, e.Origin, e.Existing)
}

// Unwrap returns ErrDefineConflict for errors.Is compatibility.
func (e *DefineConflictError) Unwrap() error { return ErrDefineConflict }

// Error implements the error interface.
func (e *SourceModuleOverlapError) Error() string {
	return fmt.Sprintf("%s is matched by both source and module patterns", e.Path)
}

// Unwrap returns ErrSourceModuleOverlap for errors.Is compatibility.
func (e *SourceModuleOverlapError) Unwrap() error { return ErrSourceModuleOverlap }

// Error implements the error interface.
func (e *InvalidProjectError) Error() string {
	return fmt.Sprintf("invalid project %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidProject for errors.Is compatibility.
func (e *InvalidProjectError) Unwrap() error { return ErrInvalidProject }

// Error implements the error interface.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("project %s: %v", e.Project, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProjectError) Unwrap() error { return e.Err }
