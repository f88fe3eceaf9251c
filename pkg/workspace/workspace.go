// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"path/filepath"
	"slices"
)

// Workspace is the top-level build description: an ordered set of uniquely
// named projects plus workspace-wide platform rules.
type Workspace struct {
	Name string
	// Root is the directory relative patterns and project dirs are taken from.
	Root string

	projects []*Project
	rules    []Rule
}

// New returns an empty workspace rooted at root.
func New(name, root string) *Workspace {
	return &Workspace{Name: name, Root: root}
}

// Add appends projects in order. The first name collision fails with
// DuplicateProjectError; projects before it stay added.
func (w *Workspace) Add(projects ...*Project) error {
	for _, p := range projects {
		if w.Project(p.Name) != nil {
			return &DuplicateProjectError{Name: p.Name}
		}
		w.projects = append(w.projects, p)
	}
	return nil
}

// AddRule appends a workspace-wide platform rule. Workspace rules are
// applied before project rules.
func (w *Workspace) AddRule(r Rule) {
	w.rules = append(w.rules, r)
}

// Projects returns the projects in declaration order.
func (w *Workspace) Projects() []*Project {
	return slices.Clone(w.projects)
}

// Project returns the named project, or nil.
func (w *Workspace) Project(name string) *Project {
	for _, p := range w.projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Rules returns the workspace-wide rules.
func (w *Workspace) Rules() []Rule {
	return slices.Clone(w.rules)
}

// ProjectDir returns the absolute base directory of p's patterns.
func (w *Workspace) ProjectDir(p *Project) (string, error) {
	dir := p.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.Root, dir)
	}
	return filepath.Abs(dir)
}

// Validate checks every project declaration.
func (w *Workspace) Validate() error {
	for _, p := range w.projects {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
