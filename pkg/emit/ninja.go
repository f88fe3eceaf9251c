// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jmake/jmake/pkg/platform"
	"github.com/jmake/jmake/pkg/workspace"
)

// NinjaFileName is the file Ninja writes into the output directory.
const NinjaFileName = "build.ninja"

// ErrNothingToBuild is returned for a project without sources or modules.
var ErrNothingToBuild = errors.New("project has no sources or modules")

var ninjaTemplate = template.Must(template.New("ninja").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, " ") },
}).Parse(`# Generated by jmake for workspace {{.Workspace}}{{with .Variant}}, variant {{.}}{{end}}, host {{.Host}}. Do not edit.
ninja_required_version = 1.10
cxx = {{.CXX}}

rule cxx_module
  command = $cxx $cxxflags -fprebuilt-module-path=$pcmdir -x c++-module --precompile $in -o $out
  description = PCM $out
rule cxx_module_obj
  command = $cxx -c $in -o $out
  description = CXX $out
rule cxx
  command = $cxx $cxxflags -fprebuilt-module-path=$pcmdir -MD -MF $out.d -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CXX $out
rule link
  command = $cxx $in -o $out $libs
  description = LINK $out
rule link_shared
  command = $cxx -shared $in -o $out $libs
  description = LINK $out
rule archive
  command = ar rcs $out $in
  description = AR $out
{{range $p := .Projects}}
# {{$p.Kind}} {{$p.Name}}
{{- range $p.Modules}}
build {{.PCM}}: cxx_module {{.Src}}{{with .Deps}} | {{join .}}{{end}}
  cxxflags = {{$p.Flags}}
  pcmdir = {{$p.PCMDir}}
build {{.Obj}}: cxx_module_obj {{.PCM}}
{{- end}}
{{- range $p.Sources}}
build {{.Obj}}: cxx {{.Src}}{{with $p.PCMs}} || {{join .}}{{end}}
  cxxflags = {{$p.Flags}}
  pcmdir = {{$p.PCMDir}}
{{- end}}
{{- if $p.Objects}}
build {{$p.Artifact}}: {{$p.Rule}} {{join $p.Objects}}
{{- if $p.Libs}}
  libs = {{$p.Libs}}
{{- end}}
{{- end}}
{{end}}
default{{range .Projects}}{{if .Objects}} {{.Artifact}}{{end}}{{end}}
`))

type (
	// Ninja writes build.ninja into the output directory.
	Ninja struct {
		Options Options
	}

	ninjaFile struct {
		Workspace string
		Variant   string
		Host      string
		CXX       string
		Projects  []ninjaProject
	}

	ninjaProject struct {
		Name     string
		Kind     workspace.TargetKind
		Flags    string
		Libs     string
		PCMDir   string
		Modules  []ninjaModule
		Sources  []ninjaObject
		PCMs     []string
		Objects  []string
		Artifact string
		Rule     string
	}

	ninjaModule struct {
		Src  string
		PCM  string
		Obj  string
		Deps []string
	}

	ninjaObject struct {
		Src string
		Obj string
	}
)

// Emit renders the graph and writes build.ninja. Per-project failures are
// joined and nothing is written when any project fails.
func (n *Ninja) Emit(ctx context.Context, graph *workspace.BuildGraph) error {
	data, err := n.Render(graph)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(filepath.Join(n.Options.outDir(graph.Root), NinjaFileName), data)
}

// Render returns the build.ninja contents for graph.
func (n *Ninja) Render(graph *workspace.BuildGraph) ([]byte, error) {
	file := ninjaFile{
		Workspace: graph.Workspace,
		Variant:   graph.Variant,
		Host:      graph.Host.String(),
		CXX:       n.Options.cxx(),
	}
	var errs []error
	for i := range graph.Projects {
		p, err := n.project(graph, &graph.Projects[i])
		if err != nil {
			errs = append(errs, &ProjectError{Project: graph.Projects[i].Name, Err: err})
			continue
		}
		file.Projects = append(file.Projects, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ninjaTemplate.Execute(&buf, file); err != nil {
		return nil, fmt.Errorf("render %s: %w", NinjaFileName, err)
	}
	return buf.Bytes(), nil
}

func (n *Ninja) project(graph *workspace.BuildGraph, rp *workspace.ResolvedProject) (ninjaProject, error) {
	if len(rp.Sources) == 0 && len(rp.Modules) == 0 {
		return ninjaProject{}, ErrNothingToBuild
	}
	p := ninjaProject{
		Name:   rp.Name,
		Kind:   rp.Kind,
		Flags:  strings.Join(n.compileFlags(rp), " "),
		Libs:   strings.Join(linkFlags(rp.LinkTargets), " "),
		PCMDir: path.Join(rp.Name, "pcm"),
	}
	objects := map[string]string{}
	addObject := func(src, obj string) error {
		if prev, dup := objects[obj]; dup {
			return fmt.Errorf("%s and %s map to the same object %s", prev, src, obj)
		}
		objects[obj] = src
		p.Objects = append(p.Objects, escapePath(obj))
		return nil
	}

	pcmOf := make(map[string]string, len(rp.Modules))
	for _, u := range rp.Modules {
		pcmOf[u.Name] = path.Join(p.PCMDir, u.Name+".pcm")
	}
	for _, u := range rp.Modules {
		m := ninjaModule{Src: escapePath(u.Path), PCM: escapePath(pcmOf[u.Name])}
		for _, imp := range u.Imports {
			if pcm, ok := pcmOf[imp]; ok {
				m.Deps = append(m.Deps, escapePath(pcm))
			}
		}
		obj := path.Join(rp.Name, "obj", "modules", u.Name+".o")
		if err := addObject(u.Path, obj); err != nil {
			return ninjaProject{}, err
		}
		m.Obj = escapePath(obj)
		p.Modules = append(p.Modules, m)
		p.PCMs = append(p.PCMs, m.PCM)
	}
	for _, src := range rp.Sources {
		obj := path.Join(rp.Name, "obj", objectName(graph.Root, src))
		if err := addObject(src, obj); err != nil {
			return ninjaProject{}, err
		}
		p.Sources = append(p.Sources, ninjaObject{Src: escapePath(src), Obj: escapePath(obj)})
	}
	p.Artifact, p.Rule = artifact(rp, graph.Host.OS)
	p.Artifact = escapePath(p.Artifact)
	return p, nil
}

// compileFlags maps the effective configuration onto compiler flags.
// Recognized settings: std, debug, optimize, warnings and cxxflags.
func (n *Ninja) compileFlags(rp *workspace.ResolvedProject) []string {
	std := n.Options.std()
	if s, ok := rp.Settings["std"].(string); ok && s != "" {
		std = s
	}
	flags := []string{"-std=" + std}
	if b, ok := rp.Settings["debug"].(bool); ok && b {
		flags = append(flags, "-g")
	}
	if b, ok := rp.Settings["optimize"].(bool); ok && b {
		flags = append(flags, "-O2")
	}
	if w, ok := rp.Settings["warnings"].(string); ok && w != "" {
		flags = append(flags, "-W"+w)
	}
	if rp.Kind == workspace.SharedLib {
		flags = append(flags, "-fPIC")
	}
	for _, inc := range rp.IncludePaths {
		flags = append(flags, shellQuote("-I"+filepath.ToSlash(inc)))
	}
	for _, d := range rp.Defines {
		if d.Value == "" {
			flags = append(flags, shellQuote("-D"+d.Name))
			continue
		}
		flags = append(flags, shellQuote("-D"+d.Name+"="+d.Value))
	}
	if extra, ok := rp.Settings["cxxflags"].(string); ok && extra != "" {
		flags = append(flags, extra)
	}
	return flags
}

func linkFlags(targets []string) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = "-l" + t
	}
	return out
}

// artifact returns the output path and link rule for a project.
func artifact(rp *workspace.ResolvedProject, host platform.OS) (string, string) {
	switch rp.Kind {
	case workspace.StaticLib:
		if host == platform.Win32 {
			return path.Join("lib", rp.Name+".lib"), "archive"
		}
		return path.Join("lib", "lib"+rp.Name+".a"), "archive"
	case workspace.SharedLib:
		switch host {
		case platform.Win32:
			return path.Join("bin", rp.Name+".dll"), "link_shared"
		case platform.MacOS:
			return path.Join("lib", "lib"+rp.Name+".dylib"), "link_shared"
		default:
			return path.Join("lib", "lib"+rp.Name+".so"), "link_shared"
		}
	default:
		if host == platform.Win32 {
			return path.Join("bin", rp.Name+".exe"), "link"
		}
		return path.Join("bin", rp.Name), "link"
	}
}

// objectName derives a slash-separated object path from a source path,
// relative to root when the source lives under it.
func objectName(root, src string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = strings.NewReplacer(":", "_", "\\", "/").Replace(strings.TrimLeft(filepath.ToSlash(src), "/"))
		rel = path.Join("_external", rel)
	}
	return filepath.ToSlash(rel) + ".o"
}

// escapePath escapes a path for a ninja build line.
func escapePath(p string) string {
	return strings.NewReplacer("$", "$$", " ", "$ ", ":", "$:").Replace(filepath.ToSlash(p))
}

// shellSpecial are the characters that make shellQuote quote its input.
const shellSpecial = " \t\"'\\;&|<>()*?#~" + "`"

// shellQuote single-quotes s when it holds characters a POSIX shell would
// interpret, and escapes '$' for ninja.
func shellQuote(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
