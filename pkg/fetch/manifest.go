// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"

	"github.com/jmake/jmake/pkg/cueutil"
	"github.com/jmake/jmake/pkg/workspace"
)

// ManifestName is the manifest file every package root must hold.
const ManifestName = "jmakepkg.cue"

var (
	//go:embed manifest_schema.cue
	manifestSchemaSource []byte

	manifestSchema = cueutil.MustCompileSchema(manifestSchemaSource, "#Manifest")

	// ErrManifestNotFound is returned when a package root has no manifest.
	ErrManifestNotFound = errors.New("package manifest not found")
)

type (
	// Manifest is a decoded jmakepkg.cue.
	Manifest struct {
		Name     string         `json:"name"`
		Version  string         `json:"version,omitempty"`
		Include  []string       `json:"include,omitempty"`
		Link     []string       `json:"link,omitempty"`
		Requires []Requirement  `json:"requires,omitempty"`
		Defines  map[string]any `json:"-"`
	}

	// Requirement is a package a package depends on.
	Requirement struct {
		Package string `json:"package"`
		Source  string `json:"source"`
		Version string `json:"version,omitempty"`
	}
)

// ReadManifest reads root/jmakepkg.cue.
func ReadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", root, ErrManifestNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ParseManifest(data, path)
}

// ParseManifest decodes manifest bytes; path is used in errors.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	res, err := cueutil.Decode[Manifest](manifestSchema, data, cueutil.WithFilename(path))
	if err != nil {
		return nil, err
	}
	m := res.Value
	if m.Defines, err = cueutil.Scalars(res.Unified, cue.ParsePath("defines")); err != nil {
		return nil, cueutil.FormatError(err, path)
	}
	return m, nil
}

// Requirements returns the manifest's own requirements with include paths
// made absolute against root.
func (m *Manifest) Requirements(root string) (workspace.Requirements, error) {
	req := workspace.Requirements{Defines: workspace.Defines{}}
	for _, inc := range m.Include {
		p := inc
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, filepath.FromSlash(p))
		}
		if p = filepath.Clean(p); !slices.Contains(req.IncludePaths, p) {
			req.IncludePaths = append(req.IncludePaths, p)
		}
	}
	for name, v := range m.Defines {
		s, err := workspace.DefineValue(v)
		if err != nil {
			return workspace.Requirements{}, fmt.Errorf("package %s: define %s: %w", m.Name, name, err)
		}
		req.Defines[name] = s
	}
	req.LinkTargets = append(req.LinkTargets, m.Link...)
	return req, nil
}
