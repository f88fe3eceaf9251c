// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

type (
	// BuiltinRegistry maps builtin identifiers to their requirements.
	BuiltinRegistry map[string]Requirements

	// FetchRequest asks a Fetcher for one package.
	FetchRequest struct {
		Identifier string
		Source     string
		Version    string
	}

	// FetchResult is a fetched package. Requirements carry absolute include
	// paths and already include the package's own transitive requirements.
	FetchResult struct {
		Root         string
		Requirements Requirements
	}

	// Fetcher obtains package dependencies.
	Fetcher interface {
		Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
	}

	// FetcherFunc adapts a function to the Fetcher interface.
	FetcherFunc func(ctx context.Context, req FetchRequest) (*FetchResult, error)

	// DependencyResolver resolves DependencySpecs into Requirements.
	DependencyResolver struct {
		Builtins BuiltinRegistry
		Fetcher  Fetcher
		Logger   *slog.Logger
	}
)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	return f(ctx, req)
}

// DefaultBuiltins returns the toolchain components jmake knows about.
func DefaultBuiltins() BuiltinRegistry {
	return BuiltinRegistry{
		"vulkan":  {LinkTargets: []string{"vulkan"}},
		"threads": {LinkTargets: []string{"pthread"}},
		"math":    {LinkTargets: []string{"m"}},
		"dl":      {LinkTargets: []string{"dl"}},
		"opengl":  {LinkTargets: []string{"GL"}},
		"win32": {
			Defines:     Defines{"UNICODE": "1", "_UNICODE": "1"},
			LinkTargets: []string{"kernel32", "user32", "gdi32", "shell32"},
		},
	}
}

// Names returns the registered identifiers, sorted.
func (b BuiltinRegistry) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// NewDependencyResolver returns a resolver over the default builtins.
func NewDependencyResolver(fetcher Fetcher) *DependencyResolver {
	return &DependencyResolver{Builtins: DefaultBuiltins(), Fetcher: fetcher}
}

// Resolve returns the requirements of dep, resolving and recording them on
// first use.
func (r *DependencyResolver) Resolve(ctx context.Context, dep *DependencySpec) (Requirements, error) {
	if req, ok := dep.Requirements(); ok {
		return req, nil
	}

	switch dep.Kind {
	case DependencyBuiltin:
		req, ok := r.builtins()[dep.Identifier]
		if !ok {
			return Requirements{}, &UnknownBuiltinError{Identifier: dep.Identifier}
		}
		dep.record("", req)
	case DependencyPackage:
		if r.Fetcher == nil {
			return Requirements{}, &DependencyFetchError{Identifier: dep.Identifier, Source: dep.Source, Err: ErrNoFetcher}
		}
		r.logger().Debug("fetching package", "identifier", dep.Identifier, "source", dep.Source, "version", dep.Version)
		res, err := r.Fetcher.Fetch(ctx, FetchRequest{Identifier: dep.Identifier, Source: dep.Source, Version: dep.Version})
		if err != nil {
			return Requirements{}, &DependencyFetchError{Identifier: dep.Identifier, Source: dep.Source, Err: err}
		}
		if res == nil {
			return Requirements{}, &DependencyFetchError{Identifier: dep.Identifier, Source: dep.Source, Err: ErrEmptyFetchResult}
		}
		dep.record(res.Root, res.Requirements)
	default:
		return Requirements{}, fmt.Errorf("dependency %q has unknown kind %q", dep.Identifier, dep.Kind)
	}

	req, _ := dep.Requirements()
	return req, nil
}

// Merge resolves every dependency in order and folds its requirements into
// cfg. Include paths and link targets are deduplicated; defines go through
// conflict detection.
func (r *DependencyResolver) Merge(ctx context.Context, cfg *Config, deps []*DependencySpec) (links []string, err error) {
	for _, dep := range deps {
		req, err := r.Resolve(ctx, dep)
		if err != nil {
			return nil, err
		}
		cfg.IncludePaths = appendUnique(cfg.IncludePaths, req.IncludePaths...)
		if cfg.Defines == nil {
			cfg.Defines = Defines{}
		}
		if err := cfg.Defines.Merge(req.Defines, dep.String()); err != nil {
			return nil, err
		}
		links = appendUnique(links, req.LinkTargets...)
	}
	return links, nil
}

func (r *DependencyResolver) builtins() BuiltinRegistry {
	if r.Builtins == nil {
		return DefaultBuiltins()
	}
	return r.Builtins
}

func (r *DependencyResolver) logger() *slog.Logger {
	if r.Logger == nil {
		return discardLogger
	}
	return r.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)
