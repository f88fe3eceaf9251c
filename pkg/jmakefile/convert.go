// SPDX-License-Identifier: MPL-2.0

package jmakefile

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jmake/jmake/pkg/platform"
	"github.com/jmake/jmake/pkg/workspace"
)

// Workspace builds the described workspace rooted at root.
func (f *File) Workspace(root string) (*workspace.Workspace, error) {
	ws := workspace.New(f.Name, root)
	for _, r := range f.Rules {
		rule, err := r.convert()
		if err != nil {
			return nil, fmt.Errorf("%s: workspace rule %q: %w", f.Path, r.Name, err)
		}
		ws.AddRule(rule)
	}
	for _, p := range f.Projects {
		proj, err := p.convert()
		if err != nil {
			return nil, fmt.Errorf("%s: project %q: %w", f.Path, p.Name, err)
		}
		if err := ws.Add(proj); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
	}
	if err := ws.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return ws, nil
}

func (p Project) convert() (*workspace.Project, error) {
	proj := workspace.NewProject(p.Name, workspace.TargetKind(p.Kind)).
		AddSources(p.Sources...).
		AddModules(p.Modules...).
		Exclude(p.Exclude...).
		Include(p.Include...)
	proj.Dir = p.Dir

	for _, name := range slices.Sorted(maps.Keys(p.Defines)) {
		if err := proj.Define(name, p.Defines[name]); err != nil {
			return nil, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(p.Settings)) {
		if err := proj.Set(key, p.Settings[key]); err != nil {
			return nil, err
		}
	}
	for _, d := range p.Dependencies {
		switch {
		case d.Builtin != "":
			proj.Depend(workspace.Builtin(d.Builtin))
		case d.Package != "":
			proj.Depend(workspace.Package(d.Package, d.Source, d.Version))
		default:
			return nil, fmt.Errorf("dependency names neither a builtin nor a package")
		}
	}
	for _, variant := range slices.Sorted(maps.Keys(p.Filters)) {
		f := p.Filters[variant]
		fs := proj.Filter(variant)
		for key, v := range f.Settings {
			fs.Set(key, v)
		}
		if f.Defines != nil {
			d, err := defines(f.Defines)
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", variant, err)
			}
			fs.ReplaceDefines(d)
		}
		if f.Include != nil {
			fs.ReplaceIncludePaths(f.Include...)
		}
	}
	for _, r := range p.Rules {
		rule, err := r.convert()
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		proj.AddRule(rule)
	}
	return proj, nil
}

func (r Rule) convert() (workspace.Rule, error) {
	var preds []platform.Predicate
	if len(r.OS) > 0 {
		oses, err := osList(r.OS)
		if err != nil {
			return workspace.Rule{}, err
		}
		preds = append(preds, platform.OSIn(oses...))
	}
	if len(r.NotOS) > 0 {
		oses, err := osList(r.NotOS)
		if err != nil {
			return workspace.Rule{}, err
		}
		preds = append(preds, platform.OSNotIn(oses...))
	}
	if len(r.Arch) > 0 {
		preds = append(preds, platform.ArchIn(r.Arch...))
	}
	d, err := defines(r.Defines)
	if err != nil {
		return workspace.Rule{}, err
	}
	return workspace.Rule{Name: r.Name, Predicate: platform.All(preds...), Defines: d}, nil
}

func osList(names []string) ([]platform.OS, error) {
	out := make([]platform.OS, 0, len(names))
	for _, n := range names {
		o := platform.OS(n)
		if err := o.Validate(); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func defines(in map[string]any) (workspace.Defines, error) {
	out := make(workspace.Defines, len(in))
	for name, v := range in {
		s, err := workspace.DefineValue(v)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}
