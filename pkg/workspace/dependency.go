// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"slices"
)

// Dependency kinds.
const (
	// DependencyBuiltin names a toolchain or system component known to the
	// BuiltinRegistry.
	DependencyBuiltin DependencyKind = "builtin"
	// DependencyPackage names an external package obtained through a Fetcher.
	DependencyPackage DependencyKind = "package"
)

type (
	// DependencyKind discriminates DependencySpec variants.
	DependencyKind string

	// Requirements are the compile and link requirements a dependency
	// imposes on its consumer.
	Requirements struct {
		IncludePaths []string
		Defines      Defines
		LinkTargets  []string
	}

	// DependencySpec declares one dependency of a project. Its Requirements
	// are filled in by the first successful resolution and never change
	// afterward.
	DependencySpec struct {
		Kind       DependencyKind
		Identifier string
		// Source locates a package (path, file:// URL or git URL). Unused for builtins.
		Source string
		// Version is an optional semver tag for packages.
		Version string

		resolved     bool
		root         string
		requirements Requirements
	}
)

// Builtin declares a builtin dependency.
func Builtin(identifier string) *DependencySpec {
	return &DependencySpec{Kind: DependencyBuiltin, Identifier: identifier}
}

// Package declares a package dependency.
func Package(identifier, source, version string) *DependencySpec {
	return &DependencySpec{Kind: DependencyPackage, Identifier: identifier, Source: source, Version: version}
}

// String renders the dependency for diagnostics.
func (d *DependencySpec) String() string {
	if d.Kind == DependencyPackage {
		if d.Version != "" {
			return fmt.Sprintf("package %s@%s", d.Identifier, d.Version)
		}
		return "package " + d.Identifier
	}
	return fmt.Sprintf("%s %s", d.Kind, d.Identifier)
}

// Resolved reports whether requirements have been recorded.
func (d *DependencySpec) Resolved() bool { return d.resolved }

// Requirements returns a copy of the recorded requirements and whether the
// dependency has been resolved.
func (d *DependencySpec) Requirements() (Requirements, bool) {
	return d.requirements.Clone(), d.resolved
}

// Root returns the fetched package root, empty for builtins.
func (d *DependencySpec) Root() string { return d.root }

// record stores the resolution result once.
func (d *DependencySpec) record(root string, req Requirements) {
	if d.resolved {
		return
	}
	d.root = root
	d.requirements = req.Clone()
	d.resolved = true
}

// Clone returns a deep copy of r.
func (r Requirements) Clone() Requirements {
	return Requirements{
		IncludePaths: slices.Clone(r.IncludePaths),
		Defines:      r.Defines.Clone(),
		LinkTargets:  slices.Clone(r.LinkTargets),
	}
}
