// SPDX-License-Identifier: MPL-2.0

package modgraph

import (
	"errors"
	"slices"

	"github.com/jmake/jmake/internal/dag"
)

type (
	// Scanner extracts the declared module name and imports of a module file.
	Scanner interface {
		Scan(path string) (name string, imports []string, err error)
	}

	// ScannerFunc adapts a function to the Scanner interface.
	ScannerFunc func(path string) (string, []string, error)

	// Unit is one module interface unit.
	Unit struct {
		Name string
		Path string
		// Imports lists imported module names in first-seen order, without duplicates.
		Imports []string
	}

	// Graph is the ordered module graph of one project.
	Graph struct {
		units    []Unit
		order    []int
		external []string
	}
)

// Scan calls f(path).
func (f ScannerFunc) Scan(path string) (string, []string, error) { return f(path) }

// Build scans every module file (in declaration order) and computes the
// compilation order. Imports of modules declared in paths become ordering
// constraints; anything else is recorded as external.
func Build(paths []string, scanner Scanner) (*Graph, error) {
	g := &Graph{}
	byName := make(map[string]int, len(paths))

	for _, path := range paths {
		name, imports, err := scanner.Scan(path)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		if prev, dup := byName[name]; dup {
			return nil, &DuplicateModuleError{Name: name, First: g.units[prev].Path, Second: path}
		}
		byName[name] = len(g.units)
		g.units = append(g.units, Unit{Name: name, Path: path, Imports: dedupe(imports)})
	}

	d := dag.New()
	for _, u := range g.units {
		d.AddNode(u.Name)
	}
	external := make(map[string]struct{})
	for _, u := range g.units {
		for _, imp := range u.Imports {
			if _, local := byName[imp]; !local {
				external[imp] = struct{}{}
				continue
			}
			// The imported unit must be compiled before the importer.
			d.AddEdge(imp, u.Name)
		}
	}

	names, err := d.TopologicalSort()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &ModuleCycleError{Cycle: cycleErr.Cycle}
		}
		return nil, err
	}
	g.order = make([]int, len(names))
	for i, name := range names {
		g.order[i] = byName[name]
	}

	for name := range external {
		g.external = append(g.external, name)
	}
	slices.Sort(g.external)
	return g, nil
}

// Units returns the units in declaration order.
func (g *Graph) Units() []Unit {
	return cloneUnits(g.units)
}

// Order returns the units in required compilation order.
func (g *Graph) Order() []Unit {
	out := make([]Unit, len(g.order))
	for i, idx := range g.order {
		out[i] = cloneUnit(g.units[idx])
	}
	return out
}

// Names returns the module names in compilation order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	for i, idx := range g.order {
		out[i] = g.units[idx].Name
	}
	return out
}

// External returns the sorted names of imported modules not declared by the project.
func (g *Graph) External() []string {
	return slices.Clone(g.external)
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func cloneUnit(u Unit) Unit {
	u.Imports = slices.Clone(u.Imports)
	return u
}

func cloneUnits(units []Unit) []Unit {
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = cloneUnit(u)
	}
	return out
}
