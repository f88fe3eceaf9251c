// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/jmake/jmake/pkg/emit"
	"github.com/jmake/jmake/pkg/fetch"
	"github.com/jmake/jmake/pkg/workspace"
)

func newGraphCommand(app *App, rf *rootFlagValues) *cobra.Command {
	var (
		variant string
		asTOML  bool
		project string
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the resolved build graph without writing files",
		Example: `  jmake graph
  jmake graph --variant release --project app
  jmake graph --toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := app.openSession(ctx, rf)
			if err != nil {
				return err
			}
			cacheDir, err := s.cfg.CacheDir.Resolve()
			if err != nil {
				return err
			}
			gen := workspace.NewGenerator(fetch.NewRouter(s.ws.Root, cacheDir, app.logger), nil, app.logger)
			graph, err := gen.Generate(ctx, s.ws, workspace.Options{
				Variant: firstNonEmpty(variant, s.cfg.Generate.Variant),
				Host:    s.host,
			})
			if err != nil {
				return generateError(s.ws, err)
			}
			if project != "" {
				rp := graph.Project(project)
				if rp == nil {
					return fmt.Errorf("project %q not found in workspace %q", project, graph.Workspace)
				}
				graph.Projects = []workspace.ResolvedProject{*rp}
			}

			if asTOML {
				data, err := emit.Marshal(graph)
				if err != nil {
					return err
				}
				_, err = app.stdout.Write(data)
				return err
			}
			fmt.Fprintln(app.stdout, renderGraph(graph))
			return nil
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "filter variant to activate (default from config)")
	cmd.Flags().BoolVar(&asTOML, "toml", false, "print the graph descriptor instead of a tree")
	cmd.Flags().StringVarP(&project, "project", "p", "", "show only this project")
	return cmd
}

// renderGraph draws the build graph as a tree with paths relative to the
// workspace root.
func renderGraph(graph *workspace.BuildGraph) string {
	variant := graph.Variant
	if variant == "" {
		variant = "base"
	}
	root := tree.Root(fmt.Sprintf("%s %s",
		TitleStyle.Render(graph.Workspace),
		SubtitleStyle.Render("("+graph.Host.String()+", "+variant+")"))).
		EnumeratorStyle(graphEnumeratorStyle)

	rel := func(p string) string {
		if r, err := filepath.Rel(graph.Root, p); err == nil && !strings.HasPrefix(r, "..") {
			return filepath.ToSlash(r)
		}
		return filepath.ToSlash(p)
	}

	for _, p := range graph.Projects {
		node := tree.Root(CmdStyle.Render(p.Name) + " " + SubtitleStyle.Render(string(p.Kind))).
			EnumeratorStyle(graphEnumeratorStyle)

		if len(p.Modules) > 0 {
			mods := tree.Root("modules")
			for _, u := range p.Modules {
				label := u.Name + " " + SubtitleStyle.Render(rel(u.Path))
				if len(u.Imports) > 0 {
					label += " ← " + strings.Join(u.Imports, ", ")
				}
				mods.Child(label)
			}
			node.Child(mods)
		}
		addSection(node, "external modules", p.ExternalModules)
		addSection(node, "sources", mapStrings(p.Sources, rel))
		addSection(node, "include paths", mapStrings(p.IncludePaths, rel))

		defines := make([]string, len(p.Defines))
		for i, d := range p.Defines {
			defines[i] = d.Name
			if d.Value != "" {
				defines[i] += "=" + d.Value
			}
		}
		addSection(node, "defines", defines)
		addSection(node, "link", p.LinkTargets)

		deps := make([]string, len(p.Dependencies))
		for i, d := range p.Dependencies {
			deps[i] = string(d.Kind) + ":" + d.Identifier
			if d.Version != "" {
				deps[i] += "@" + d.Version
			}
		}
		addSection(node, "dependencies", deps)
		addSection(node, "rules", p.Rules)

		root.Child(node)
	}
	return root.String()
}

func addSection(parent *tree.Tree, title string, items []string) {
	if len(items) == 0 {
		return
	}
	section := tree.Root(title)
	for _, item := range items {
		section.Child(item)
	}
	parent.Child(section)
}

func mapStrings(in []string, f func(string) string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = f(s)
	}
	return out
}
