// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jmake/jmake/pkg/workspace"
)

var (
	// ErrRequireCycle is returned when packages require each other.
	ErrRequireCycle = errors.New("package require cycle")
	// ErrVersionMismatch is returned when a local package's manifest version
	// differs from the requested one.
	ErrVersionMismatch = errors.New("package version mismatch")
)

var _ workspace.Fetcher = (*Router)(nil)

// Router is the default workspace.Fetcher.
type Router struct {
	// Base resolves relative local sources of top-level dependencies.
	Base   string
	Git    *GitFetcher
	Logger *slog.Logger

	mu    sync.Mutex
	cache map[workspace.FetchRequest]*workspace.FetchResult
}

// NewRouter returns a Router resolving local sources against root and
// caching git checkouts under cacheDir.
func NewRouter(root, cacheDir string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{Base: root, Git: NewGitFetcher(cacheDir), Logger: logger}
}

// Fetch locates the package, reads its manifest and returns its
// requirements merged with those of every package it requires.
func (r *Router) Fetch(ctx context.Context, req workspace.FetchRequest) (*workspace.FetchResult, error) {
	return r.fetch(ctx, req, r.Base, nil)
}

func (r *Router) fetch(ctx context.Context, req workspace.FetchRequest, base string, stack []string) (*workspace.FetchResult, error) {
	if slices.Contains(stack, req.Identifier) {
		return nil, fmt.Errorf("%w: %s", ErrRequireCycle, strings.Join(append(stack, req.Identifier), " -> "))
	}
	key := req
	if IsLocalSource(req.Source) {
		key.Source = base + "|" + req.Source
	}
	if res := r.cached(key); res != nil {
		return res, nil
	}

	root, err := r.locate(ctx, req, base)
	if err != nil {
		return nil, err
	}
	m, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}
	if m.Name != req.Identifier {
		r.logger().Warn("package manifest name differs from dependency identifier",
			"identifier", req.Identifier, "manifest", m.Name, "root", root)
	}
	if IsLocalSource(req.Source) && req.Version != "" && m.Version != req.Version {
		return nil, fmt.Errorf("%w: %s wants %s, %s declares %q", ErrVersionMismatch, req.Identifier, req.Version, root, m.Version)
	}

	reqs, err := m.Requirements(root)
	if err != nil {
		return nil, err
	}
	for _, sub := range m.Requires {
		child, err := r.fetch(ctx, workspace.FetchRequest{
			Identifier: sub.Package,
			Source:     sub.Source,
			Version:    sub.Version,
		}, root, append(slices.Clone(stack), req.Identifier))
		if err != nil {
			return nil, fmt.Errorf("%s requires %s: %w", req.Identifier, sub.Package, err)
		}
		if err := merge(&reqs, child.Requirements, "package "+sub.Package); err != nil {
			return nil, err
		}
	}

	res := &workspace.FetchResult{Root: root, Requirements: reqs}
	r.store(key, res)
	r.logger().Debug("package fetched", "identifier", req.Identifier, "root", root, "requires", len(m.Requires))
	return res, nil
}

func (r *Router) locate(ctx context.Context, req workspace.FetchRequest, base string) (string, error) {
	if IsLocalSource(req.Source) {
		local := &LocalFetcher{Base: base}
		return local.Locate(ctx, req.Source)
	}
	if r.Git == nil {
		return "", fmt.Errorf("no git fetcher configured for %s", req.Source)
	}
	return r.Git.Locate(ctx, req.Source, req.Version)
}

func merge(dst *workspace.Requirements, src workspace.Requirements, origin string) error {
	for _, p := range src.IncludePaths {
		if !slices.Contains(dst.IncludePaths, p) {
			dst.IncludePaths = append(dst.IncludePaths, p)
		}
	}
	for _, l := range src.LinkTargets {
		if !slices.Contains(dst.LinkTargets, l) {
			dst.LinkTargets = append(dst.LinkTargets, l)
		}
	}
	if dst.Defines == nil {
		dst.Defines = workspace.Defines{}
	}
	return dst.Defines.Merge(src.Defines, origin)
}

func (r *Router) cached(key workspace.FetchRequest) *workspace.FetchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[key]
}

func (r *Router) store(key workspace.FetchRequest, res *workspace.FetchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		r.cache = map[workspace.FetchRequest]*workspace.FetchResult{}
	}
	r.cache[key] = res
}

func (r *Router) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
