// SPDX-License-Identifier: MPL-2.0

package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/jmake/jmake/pkg/modgraph"
	"github.com/jmake/jmake/pkg/pathresolve"
	"github.com/jmake/jmake/pkg/platform"
)

type (
	// Options select the variant and host of one generation run.
	Options struct {
		// Variant is the active filter variant; empty uses base configurations.
		Variant string
		Host    platform.Context
	}

	// GraphEmitter writes a BuildGraph for a native build backend.
	GraphEmitter interface {
		Emit(ctx context.Context, graph *BuildGraph) error
	}

	// Generator resolves a Workspace into a BuildGraph.
	Generator struct {
		Resolver *DependencyResolver
		Scanner  modgraph.Scanner
		Emitter  GraphEmitter
		Logger   *slog.Logger
	}

	// BuildGraph is the frozen result of a generation run.
	BuildGraph struct {
		Workspace string
		Root      string
		Variant   string
		Host      platform.Context
		Projects  []ResolvedProject
	}

	// ResolvedProject is one fully resolved project.
	ResolvedProject struct {
		Name string
		Kind TargetKind
		Dir  string
		// Modules are ordered so that every unit follows the units it imports.
		Modules         []modgraph.Unit
		ExternalModules []string
		// Sources are plain translation units, compiled after all modules.
		Sources      []string
		IncludePaths []string
		Defines      []Define
		LinkTargets  []string
		Settings     map[string]any
		Dependencies []ResolvedDependency
		// Rules names the platform rules that matched the host.
		Rules []string
	}

	// ResolvedDependency records how a dependency was satisfied.
	ResolvedDependency struct {
		Kind       DependencyKind
		Identifier string
		Version    string
		// Root is the fetched package directory; empty for builtins.
		Root string
	}
)

// NewGenerator returns a Generator with the default builtins, the source
// scanner and fetcher.
func NewGenerator(fetcher Fetcher, emitter GraphEmitter, logger *slog.Logger) *Generator {
	r := NewDependencyResolver(fetcher)
	r.Logger = logger
	return &Generator{Resolver: r, Scanner: modgraph.SourceScanner{}, Emitter: emitter, Logger: logger}
}

// Project returns the named resolved project, or nil.
func (g *BuildGraph) Project(name string) *ResolvedProject {
	for i := range g.Projects {
		if g.Projects[i].Name == name {
			return &g.Projects[i]
		}
	}
	return nil
}

// Generate resolves every project of ws in declaration order. The first
// failure aborts the run with a ProjectError and no graph.
func (g *Generator) Generate(ctx context.Context, ws *Workspace, opts Options) (*BuildGraph, error) {
	graph := &BuildGraph{
		Workspace: ws.Name,
		Root:      ws.Root,
		Variant:   opts.Variant,
		Host:      opts.Host,
	}
	for _, p := range ws.projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rp, err := g.resolveProject(ctx, ws, p, opts)
		if err != nil {
			return nil, &ProjectError{Project: p.Name, Err: err}
		}
		g.logger().Debug("project resolved",
			"project", p.Name,
			"sources", len(rp.Sources),
			"modules", len(rp.Modules),
			"dependencies", len(rp.Dependencies))
		graph.Projects = append(graph.Projects, rp)
	}
	return graph, nil
}

// Run generates ws and hands the graph to the Emitter.
func (g *Generator) Run(ctx context.Context, ws *Workspace, opts Options) (*BuildGraph, error) {
	graph, err := g.Generate(ctx, ws, opts)
	if err != nil {
		return nil, err
	}
	if g.Emitter == nil {
		return graph, nil
	}
	if err := g.Emitter.Emit(ctx, graph); err != nil {
		return nil, fmt.Errorf("emit build graph: %w", err)
	}
	return graph, nil
}

func (g *Generator) resolveProject(ctx context.Context, ws *Workspace, p *Project, opts Options) (ResolvedProject, error) {
	if err := p.Validate(); err != nil {
		return ResolvedProject{}, err
	}
	cfg, err := p.Effective(opts.Variant)
	if err != nil {
		return ResolvedProject{}, err
	}
	dir, err := ws.ProjectDir(p)
	if err != nil {
		return ResolvedProject{}, err
	}

	sources, err := pathresolve.Resolve(dir, p.SourcePatterns)
	if err != nil {
		return ResolvedProject{}, err
	}
	for _, ex := range p.Excludes {
		target, err := pathresolve.Normalize(dir, ex)
		if err != nil {
			return ResolvedProject{}, err
		}
		if sources, err = pathresolve.Exclude(sources, target); err != nil {
			return ResolvedProject{}, err
		}
	}
	modules, err := pathresolve.Resolve(dir, p.ModulePatterns)
	if err != nil {
		return ResolvedProject{}, err
	}
	if err := checkOverlap(sources, modules); err != nil {
		return ResolvedProject{}, err
	}

	includes := make([]string, 0, len(cfg.IncludePaths))
	for _, inc := range cfg.IncludePaths {
		abs, err := pathresolve.Normalize(dir, inc)
		if err != nil {
			return ResolvedProject{}, err
		}
		includes = appendUnique(includes, abs)
	}
	cfg.IncludePaths = includes

	links, err := g.resolver().Merge(ctx, &cfg, p.Dependencies)
	if err != nil {
		return ResolvedProject{}, err
	}

	mg, err := modgraph.Build(modules, g.scanner())
	if err != nil {
		return ResolvedProject{}, err
	}

	cond := NewConditioner(ws.rules, p.Rules)
	defines, err := cond.Apply(opts.Host, cfg.Defines)
	if err != nil {
		return ResolvedProject{}, err
	}

	deps := make([]ResolvedDependency, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		deps = append(deps, ResolvedDependency{Kind: d.Kind, Identifier: d.Identifier, Version: d.Version, Root: d.Root()})
	}
	settings := make(map[string]any, len(cfg.Settings))
	maps.Copy(settings, cfg.Settings)

	return ResolvedProject{
		Name:            p.Name,
		Kind:            p.Kind,
		Dir:             dir,
		Modules:         mg.Order(),
		ExternalModules: mg.External(),
		Sources:         sources,
		IncludePaths:    cfg.IncludePaths,
		Defines:         defines.Sorted(),
		LinkTargets:     links,
		Settings:        settings,
		Dependencies:    deps,
		Rules:           cond.Matching(opts.Host),
	}, nil
}

func checkOverlap(sources, modules []string) error {
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		seen[s] = struct{}{}
	}
	for _, m := range modules {
		if _, ok := seen[m]; ok {
			return &SourceModuleOverlapError{Path: m}
		}
	}
	return nil
}

func (g *Generator) resolver() *DependencyResolver {
	if g.Resolver == nil {
		g.Resolver = NewDependencyResolver(nil)
	}
	return g.Resolver
}

func (g *Generator) scanner() modgraph.Scanner {
	if g.Scanner == nil {
		return modgraph.SourceScanner{}
	}
	return g.Scanner
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return discardLogger
	}
	return g.Logger
}
