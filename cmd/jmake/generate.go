// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmake/jmake/internal/issue"
	"github.com/jmake/jmake/internal/watch"
	"github.com/jmake/jmake/pkg/emit"
	"github.com/jmake/jmake/pkg/fetch"
	"github.com/jmake/jmake/pkg/jmakefile"
	"github.com/jmake/jmake/pkg/modgraph"
	"github.com/jmake/jmake/pkg/workspace"
)

type generateFlagValues struct {
	variant string
	backend string
	out     string
	watch   bool
}

func newGenerateCommand(app *App, rf *rootFlagValues) *cobra.Command {
	gf := &generateFlagValues{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Resolve the workspace and write build files",
		Long: `Resolve every project of the workspace for the host platform and the
selected variant, then write build files with the configured backend.

Backends:
  ninja   build.ninja; module PCMs build before their importers and
          before the project's plain sources
  toml    jmake-graph.toml, the resolved build graph
  all     both of the above`,
		Example: `  jmake generate
  jmake generate --variant debug --backend all
  jmake generate --os win32 --out build-win
  jmake generate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, app, rf, gf)
		},
	}
	bindGenerateFlags(cmd, gf)
	return cmd
}

func bindGenerateFlags(cmd *cobra.Command, gf *generateFlagValues) {
	cmd.Flags().StringVar(&gf.variant, "variant", "", "filter variant to activate (default from config)")
	cmd.Flags().StringVar(&gf.backend, "backend", "", "output backend: "+strings.Join(emit.Backends(), ", "))
	cmd.Flags().StringVarP(&gf.out, "out", "o", "", "output directory, relative to the workspace root")
	cmd.Flags().BoolVarP(&gf.watch, "watch", "w", false, "regenerate whenever workspace files change")
}

func runGenerate(cmd *cobra.Command, app *App, rf *rootFlagValues, gf *generateFlagValues) error {
	ctx := cmd.Context()
	s, err := app.openSession(ctx, rf)
	if err != nil {
		return err
	}

	backend := firstNonEmpty(gf.backend, s.cfg.Generate.Backend, emit.BackendNinja)
	opts := s.cfg.EmitOptions()
	if gf.out != "" {
		opts.OutDir = gf.out
	}
	if opts.OutDir == "" {
		opts.OutDir = "build"
	}
	variant := firstNonEmpty(gf.variant, s.cfg.Generate.Variant)

	emitter, err := emit.New(backend, opts)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("select backend").
			WithResource(backend).
			WithSuggestion("Use --backend " + strings.Join(emit.Backends(), ", --backend ")).
			Wrap(err).
			WithExplanation().
			BuildError()
	}
	cacheDir, err := s.cfg.CacheDir.Resolve()
	if err != nil {
		return err
	}

	g := &generation{
		app:      app,
		session:  s,
		backend:  backend,
		opts:     opts,
		variant:  variant,
		cacheDir: cacheDir,
		emitter:  emitter,
	}
	if err := g.run(ctx); err != nil {
		if !gf.watch {
			return err
		}
		fmt.Fprintln(app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, rf.verbose))
	}
	if !gf.watch {
		return nil
	}
	return g.watch(ctx, rf.verbose)
}

// generation is one configured generate invocation, rerun on changes in
// watch mode.
type generation struct {
	app      *App
	session  *session
	backend  string
	opts     emit.Options
	variant  string
	cacheDir string
	emitter  workspace.GraphEmitter
}

func (g *generation) run(ctx context.Context) error {
	ws := g.session.ws
	router := fetch.NewRouter(ws.Root, g.cacheDir, g.app.logger)
	gen := workspace.NewGenerator(router, g.emitter, g.app.logger)

	graph, err := gen.Run(ctx, ws, workspace.Options{Variant: g.variant, Host: g.session.host})
	if err != nil {
		return generateError(ws, err)
	}

	variant := graph.Variant
	if variant == "" {
		variant = "base"
	}
	fmt.Fprintf(g.app.stdout, "%s generated %d %s for %s (%s)\n",
		SuccessStyle.Render("✓"),
		len(graph.Projects), plural(len(graph.Projects), "project", "projects"),
		CmdStyle.Render(graph.Host.String()), variant)
	for _, f := range g.outputs() {
		fmt.Fprintf(g.app.stdout, "  %s\n", SubtitleStyle.Render(f))
	}
	return nil
}

// outputs lists the written files relative to the workspace root.
func (g *generation) outputs() []string {
	var names []string
	switch g.backend {
	case emit.BackendNinja:
		names = []string{emit.NinjaFileName}
	case emit.BackendTOML:
		names = []string{emit.DescriptorFileName}
	default:
		names = []string{emit.NinjaFileName, emit.DescriptorFileName}
	}
	out := g.opts.OutDir
	if filepath.IsAbs(out) {
		if rel, err := filepath.Rel(g.session.ws.Root, out); err == nil && !strings.HasPrefix(rel, "..") {
			out = rel
		}
	}
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = filepath.ToSlash(filepath.Join(out, n))
	}
	return files
}

// outIgnore returns the watch ignore pattern covering an output directory
// inside the workspace.
func (g *generation) outIgnore() []string {
	out := g.opts.OutDir
	if filepath.IsAbs(out) {
		rel, err := filepath.Rel(g.session.ws.Root, out)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil
		}
		out = rel
	}
	return []string{filepath.ToSlash(filepath.Clean(out)) + "/**"}
}

// watch regenerates on every relevant change until ctx is canceled. The
// workspace file is reloaded each time; failures are reported and watching
// continues.
func (g *generation) watch(ctx context.Context, verbose bool) error {
	w, err := watch.New(watch.Config{
		Root:   g.session.ws.Root,
		Ignore: g.outIgnore(),
		OnChange: func(ctx context.Context, changed []string) error {
			g.app.logger.Debug("change detected", "paths", changed)
			ws, err := loadWorkspace(g.session.file)
			if err != nil {
				fmt.Fprintln(g.app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return nil
			}
			g.session.ws = ws
			if err := g.run(ctx); err != nil {
				fmt.Fprintln(g.app.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			}
			return nil
		},
		Stdout: g.app.stdout,
		Logger: g.app.logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(g.app.stdout, "%s watching %s (Ctrl+C to stop)\n",
		SubtitleStyle.Render("→"), CmdStyle.Render(w.Root()))
	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// generateError attaches suggestions for the common generation failures.
func generateError(ws *workspace.Workspace, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("generate").
		WithResource(filepath.Join(ws.Root, jmakefile.FileName)).
		Wrap(err)

	switch {
	case errors.Is(err, workspace.ErrUnknownFilter):
		ec.WithSuggestion("Declare the variant in a project's filters or omit --variant")
	case errors.Is(err, modgraph.ErrModuleCycle):
		ec.WithSuggestion("Break the cycle by moving shared declarations into a separate module partition")
	case errors.Is(err, fetch.ErrRequireCycle):
		ec.WithSuggestion("Remove one of the requires entries that point back at each other")
	}
	return ec.WithExplanation().BuildError()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
