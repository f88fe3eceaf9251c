// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmake/jmake/pkg/workspace"
)

// DescriptorFileName is the file Descriptor writes into the output directory.
const DescriptorFileName = "jmake-graph.toml"

type (
	// Descriptor writes the build graph as TOML.
	Descriptor struct {
		Options Options
	}

	// GraphDocument is the TOML form of a BuildGraph.
	GraphDocument struct {
		Workspace string            `toml:"workspace"`
		Root      string            `toml:"root"`
		Variant   string            `toml:"variant,omitempty"`
		OS        string            `toml:"os"`
		Arch      string            `toml:"arch,omitempty"`
		Projects  []ProjectDocument `toml:"project"`
	}

	// ProjectDocument is the TOML form of a ResolvedProject.
	ProjectDocument struct {
		Name            string               `toml:"name"`
		Kind            string               `toml:"kind"`
		Dir             string               `toml:"dir"`
		Modules         []ModuleDocument     `toml:"module,omitempty"`
		ExternalModules []string             `toml:"external_modules,omitempty"`
		Sources         []string             `toml:"sources"`
		IncludePaths    []string             `toml:"include_paths,omitempty"`
		Defines         map[string]string    `toml:"defines,omitempty"`
		LinkTargets     []string             `toml:"link_targets,omitempty"`
		Settings        map[string]any       `toml:"settings,omitempty"`
		Dependencies    []DependencyDocument `toml:"dependency,omitempty"`
		Rules           []string             `toml:"rules,omitempty"`
	}

	// ModuleDocument is one ordered module interface unit.
	ModuleDocument struct {
		Name    string   `toml:"name"`
		Path    string   `toml:"path"`
		Imports []string `toml:"imports,omitempty"`
	}

	// DependencyDocument records how a dependency was satisfied.
	DependencyDocument struct {
		Kind       string `toml:"kind"`
		Identifier string `toml:"identifier"`
		Version    string `toml:"version,omitempty"`
		Root       string `toml:"root,omitempty"`
	}
)

// Emit writes jmake-graph.toml.
func (d *Descriptor) Emit(ctx context.Context, graph *workspace.BuildGraph) error {
	data, err := Marshal(graph)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(filepath.Join(d.Options.outDir(graph.Root), DescriptorFileName), data)
}

// Marshal encodes graph as TOML.
func Marshal(graph *workspace.BuildGraph) ([]byte, error) {
	data, err := toml.Marshal(Document(graph))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", DescriptorFileName, err)
	}
	return data, nil
}

// Unmarshal decodes a descriptor written by Marshal.
func Unmarshal(data []byte) (*GraphDocument, error) {
	var doc GraphDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", DescriptorFileName, err)
	}
	return &doc, nil
}

// Document converts graph to its TOML form.
func Document(graph *workspace.BuildGraph) GraphDocument {
	doc := GraphDocument{
		Workspace: graph.Workspace,
		Root:      filepath.ToSlash(graph.Root),
		Variant:   graph.Variant,
		OS:        graph.Host.OS.String(),
		Arch:      graph.Host.Arch,
	}
	for _, rp := range graph.Projects {
		pd := ProjectDocument{
			Name:            rp.Name,
			Kind:            string(rp.Kind),
			Dir:             filepath.ToSlash(rp.Dir),
			ExternalModules: rp.ExternalModules,
			Sources:         slashAll(rp.Sources),
			IncludePaths:    slashAll(rp.IncludePaths),
			LinkTargets:     rp.LinkTargets,
			Settings:        rp.Settings,
			Rules:           rp.Rules,
		}
		if len(rp.Defines) > 0 {
			pd.Defines = make(map[string]string, len(rp.Defines))
			for _, def := range rp.Defines {
				pd.Defines[def.Name] = def.Value
			}
		}
		for _, u := range rp.Modules {
			pd.Modules = append(pd.Modules, ModuleDocument{Name: u.Name, Path: filepath.ToSlash(u.Path), Imports: u.Imports})
		}
		for _, dep := range rp.Dependencies {
			pd.Dependencies = append(pd.Dependencies, DependencyDocument{
				Kind:       string(dep.Kind),
				Identifier: dep.Identifier,
				Version:    dep.Version,
				Root:       filepath.ToSlash(dep.Root),
			})
		}
		doc.Projects = append(doc.Projects, pd)
	}
	return doc
}

func slashAll(paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.ToSlash(p)
	}
	return out
}
