// SPDX-License-Identifier: MPL-2.0

package jmakefile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"

	"github.com/jmake/jmake/pkg/cueutil"
	"github.com/jmake/jmake/pkg/workspace"
)

// FileName is the workspace description looked up by Find.
const FileName = "jmake.cue"

var (
	//go:embed jmakefile_schema.cue
	schemaSource []byte

	schema = cueutil.MustCompileSchema(schemaSource, "#Workspace")

	// ErrNotFound is returned by Find when no description exists up to the
	// filesystem root.
	ErrNotFound = errors.New("no " + FileName + " found")
)

type (
	// File is a decoded description. Scalar maps are filled from the
	// unified CUE value rather than by struct decoding.
	File struct {
		Path     string    `json:"-"`
		Name     string    `json:"workspace"`
		Rules    []Rule    `json:"rules,omitempty"`
		Projects []Project `json:"projects"`
	}

	// Project mirrors #Project.
	Project struct {
		Name         string            `json:"name"`
		Kind         string            `json:"kind"`
		Dir          string            `json:"dir,omitempty"`
		Sources      []string          `json:"sources,omitempty"`
		Modules      []string          `json:"modules,omitempty"`
		Exclude      []string          `json:"exclude,omitempty"`
		Include      []string          `json:"include,omitempty"`
		Dependencies []Dependency      `json:"dependencies,omitempty"`
		Filters      map[string]Filter `json:"filters,omitempty"`
		Rules        []Rule            `json:"rules,omitempty"`
		Defines      map[string]any    `json:"-"`
		Settings     map[string]any    `json:"-"`
	}

	// Filter mirrors #Filter. A nil Defines or Include means the variant
	// keeps the base collection.
	Filter struct {
		Include  []string       `json:"include,omitempty"`
		Settings map[string]any `json:"-"`
		Defines  map[string]any `json:"-"`
	}

	// Dependency mirrors #Dependency; exactly one of Builtin and Package is set.
	Dependency struct {
		Builtin string `json:"builtin,omitempty"`
		Package string `json:"package,omitempty"`
		Source  string `json:"source,omitempty"`
		Version string `json:"version,omitempty"`
	}

	// Rule mirrors #Rule.
	Rule struct {
		Name    string         `json:"name"`
		OS      []string       `json:"os,omitempty"`
		NotOS   []string       `json:"notOS,omitempty"`
		Arch    []string       `json:"arch,omitempty"`
		Defines map[string]any `json:"-"`
	}
)

// Find walks up from dir to the filesystem root and returns the first
// jmake.cue found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Parse reads and decodes the description at path.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace description: %w", err)
	}
	return ParseBytes(data, path)
}

// ParseBytes decodes a description. path is used in error messages.
func ParseBytes(data []byte, path string) (*File, error) {
	result, err := cueutil.Decode[File](schema, data, cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	f := result.Value
	f.Path = path
	if err := f.readScalars(result.Unified); err != nil {
		return nil, cueutil.FormatError(err, path)
	}
	return f, nil
}

// Load parses the description at path and builds its Workspace, rooted at
// the file's directory.
func Load(path string) (*workspace.Workspace, error) {
	f, err := Parse(path)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return f.Workspace(root)
}

func (f *File) readScalars(v cue.Value) error {
	var err error
	for i := range f.Rules {
		if f.Rules[i].Defines, err = cueutil.Scalars(v, cue.MakePath(cue.Str("rules"), cue.Index(i), cue.Str("defines"))); err != nil {
			return err
		}
	}
	for i := range f.Projects {
		p := &f.Projects[i]
		at := func(sel ...cue.Selector) cue.Path {
			return cue.MakePath(append([]cue.Selector{cue.Str("projects"), cue.Index(i)}, sel...)...)
		}
		if p.Defines, err = cueutil.Scalars(v, at(cue.Str("defines"))); err != nil {
			return err
		}
		if p.Settings, err = cueutil.Scalars(v, at(cue.Str("settings"))); err != nil {
			return err
		}
		for j := range p.Rules {
			if p.Rules[j].Defines, err = cueutil.Scalars(v, at(cue.Str("rules"), cue.Index(j), cue.Str("defines"))); err != nil {
				return err
			}
		}
		for name, filter := range p.Filters {
			fp := func(field string) cue.Path { return at(cue.Str("filters"), cue.Str(name), cue.Str(field)) }
			if filter.Settings, err = cueutil.Scalars(v, fp("settings")); err != nil {
				return err
			}
			if filter.Defines, err = cueutil.Scalars(v, fp("defines")); err != nil {
				return err
			}
			if filter.Include == nil && v.LookupPath(fp("include")).Exists() {
				filter.Include = []string{}
			}
			p.Filters[name] = filter
		}
	}
	return nil
}
