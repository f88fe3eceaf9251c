// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/jmake/jmake/pkg/platform"
)

// Target kinds.
const (
	Executable TargetKind = "executable"
	StaticLib  TargetKind = "staticLib"
	SharedLib  TargetKind = "sharedLib"
)

// projectNamePattern restricts names to what is safe as a file name and a
// ninja identifier.
var projectNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

type (
	// TargetKind is the artifact a project produces.
	TargetKind string

	// Project is one build target of a workspace.
	Project struct {
		Name string
		Kind TargetKind
		// Dir is the base directory for the project's patterns. Relative
		// values are taken from the workspace root; empty means the root.
		Dir string

		SourcePatterns []string
		ModulePatterns []string
		// Excludes are paths removed from the resolved sources; each must match.
		Excludes []string

		Dependencies []*DependencySpec
		Rules        []Rule

		base    Config
		filters map[string]*FilterSet
	}
)

// Validate reports whether k is a known target kind.
func (k TargetKind) Validate() error {
	switch k {
	case Executable, StaticLib, SharedLib:
		return nil
	default:
		return fmt.Errorf("unknown target kind %q", string(k))
	}
}

// NewProject returns an empty project of the given kind.
func NewProject(name string, kind TargetKind) *Project {
	return &Project{
		Name: name,
		Kind: kind,
		base: Config{
			Settings: map[string]any{},
			Defines:  Defines{},
		},
		filters: map[string]*FilterSet{},
	}
}

// AddSources appends source patterns.
func (p *Project) AddSources(patterns ...string) *Project {
	p.SourcePatterns = append(p.SourcePatterns, patterns...)
	return p
}

// AddModules appends module interface unit patterns.
func (p *Project) AddModules(patterns ...string) *Project {
	p.ModulePatterns = append(p.ModulePatterns, patterns...)
	return p
}

// Exclude removes paths from the resolved sources. Each must name a file the
// source patterns resolve to.
func (p *Project) Exclude(paths ...string) *Project {
	p.Excludes = append(p.Excludes, paths...)
	return p
}

// Include adds include paths, ignoring ones already present.
func (p *Project) Include(paths ...string) *Project {
	p.base.IncludePaths = appendUnique(p.base.IncludePaths, paths...)
	return p
}

// Define sets a base define. Values are normalized with DefineValue.
func (p *Project) Define(name string, value any) error {
	v, err := DefineValue(value)
	if err != nil {
		return fmt.Errorf("project %q: define %s: %w", p.Name, name, err)
	}
	p.ensureBase()
	p.base.Defines[name] = v
	return nil
}

// Set records a base setting.
func (p *Project) Set(key string, value any) error {
	if !IsScalar(value) {
		return &InvalidProjectError{Name: p.Name, Reason: fmt.Sprintf("setting %q has non-scalar value %T", key, value)}
	}
	p.ensureBase()
	p.base.Settings[key] = value
	return nil
}

// Depend appends dependencies.
func (p *Project) Depend(deps ...*DependencySpec) *Project {
	p.Dependencies = append(p.Dependencies, deps...)
	return p
}

// AddRule appends a project-level platform rule.
func (p *Project) AddRule(r Rule) *Project {
	p.Rules = append(p.Rules, r)
	return p
}

// Filter returns the FilterSet for variant, creating it on first use.
func (p *Project) Filter(variant string) *FilterSet {
	if p.filters == nil {
		p.filters = map[string]*FilterSet{}
	}
	f, ok := p.filters[variant]
	if !ok {
		f = NewFilterSet(variant)
		p.filters[variant] = f
	}
	return f
}

// Variants lists the declared variants, sorted.
func (p *Project) Variants() []string {
	return slices.Sorted(maps.Keys(p.filters))
}

// Base returns a copy of the base configuration.
func (p *Project) Base() Config { return p.base.Clone() }

// Effective returns the configuration for variant. The empty variant yields
// the base configuration. The project is not modified.
func (p *Project) Effective(variant string) (Config, error) {
	if variant == "" {
		return p.base.Clone(), nil
	}
	f, ok := p.filters[variant]
	if !ok {
		return Config{}, &UnknownFilterError{Project: p.Name, Variant: variant}
	}
	return f.apply(p.base), nil
}

// Validate checks the structural invariants of the declaration.
func (p *Project) Validate() error {
	if !projectNamePattern.MatchString(p.Name) {
		return &InvalidProjectError{Name: p.Name, Reason: "name must start with a letter or underscore and contain only letters, digits, '_', '.' or '-'"}
	}
	if platform.IsWindowsReservedName(p.Name) {
		return &InvalidProjectError{Name: p.Name, Reason: "name is reserved on Windows"}
	}
	if err := p.Kind.Validate(); err != nil {
		return &InvalidProjectError{Name: p.Name, Reason: err.Error()}
	}
	for _, dep := range p.Dependencies {
		if dep.Identifier == "" {
			return &InvalidProjectError{Name: p.Name, Reason: "dependency without identifier"}
		}
		if dep.Kind == DependencyPackage && dep.Source == "" {
			return &InvalidProjectError{Name: p.Name, Reason: fmt.Sprintf("package %q has no source", dep.Identifier)}
		}
	}
	for variant, f := range p.filters {
		for key, v := range f.Settings {
			if !IsScalar(v) {
				return &InvalidProjectError{Name: p.Name, Reason: fmt.Sprintf("filter %q setting %q has non-scalar value %T", variant, key, v)}
			}
		}
	}
	return nil
}

func (p *Project) ensureBase() {
	if p.base.Settings == nil {
		p.base.Settings = map[string]any{}
	}
	if p.base.Defines == nil {
		p.base.Defines = Defines{}
	}
}
