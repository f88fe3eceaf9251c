// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/jmake/jmake/pkg/workspace"
)

// Backend names accepted by New.
const (
	BackendNinja = "ninja"
	BackendTOML  = "toml"
	BackendAll   = "all"
)

// ErrUnknownBackend is returned by New for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown backend")

type (
	// Options configure the emitters.
	Options struct {
		// OutDir receives the generated files; relative values are taken from
		// the workspace root.
		OutDir string
		CXX    string
		Std    string
	}

	// ProjectError is a per-project emission failure.
	ProjectError struct {
		Project string
		Err     error
	}

	multi []workspace.GraphEmitter
)

// Error implements the error interface.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("emit project %s: %v", e.Project, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProjectError) Unwrap() error { return e.Err }

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendNinja, BackendTOML, BackendAll}
}

// New returns the emitter for backend.
func New(backend string, opts Options) (workspace.GraphEmitter, error) {
	switch backend {
	case BackendNinja:
		return &Ninja{Options: opts}, nil
	case BackendTOML:
		return &Descriptor{Options: opts}, nil
	case BackendAll:
		return Multi(&Ninja{Options: opts}, &Descriptor{Options: opts}), nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %v)", ErrUnknownBackend, backend, Backends())
	}
}

// Multi runs every emitter and joins their errors.
func Multi(emitters ...workspace.GraphEmitter) workspace.GraphEmitter {
	return multi(slices.Clone(emitters))
}

func (m multi) Emit(ctx context.Context, graph *workspace.BuildGraph) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, graph); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (o Options) outDir(root string) string {
	dir := o.OutDir
	if dir == "" {
		dir = "build"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir
}

func (o Options) cxx() string {
	if o.CXX == "" {
		return "clang++"
	}
	return o.CXX
}

func (o Options) std() string {
	if o.Std == "" {
		return "c++20"
	}
	return o.Std
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
