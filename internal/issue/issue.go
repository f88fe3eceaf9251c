// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jmake/jmake/pkg/cueutil"
	"github.com/jmake/jmake/pkg/emit"
	"github.com/jmake/jmake/pkg/extension"
	"github.com/jmake/jmake/pkg/fetch"
	"github.com/jmake/jmake/pkg/jmakefile"
	"github.com/jmake/jmake/pkg/modgraph"
	"github.com/jmake/jmake/pkg/pathresolve"
	"github.com/jmake/jmake/pkg/workspace"
)

// Id identifies a catalog entry.
type Id int

const (
	WorkspaceNotFoundId Id = iota + 1
	WorkspaceParseErrorId
	PathNotFoundId
	InvalidPatternId
	UnknownFilterId
	ModuleCycleId
	DuplicateModuleId
	SourceModuleOverlapId
	UnknownBuiltinId
	DependencyFetchId
	RequireCycleId
	DefineConflictId
	DuplicateProjectId
	InvalidProjectId
	UnknownCommandId
	UnknownBackendId
	ConfigLoadFailedId
	ShaderCompileFailedId
)

type (
	// MarkdownMsg is Markdown source rendered by glamour.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is one explanation in the catalog.
	Issue struct {
		id       Id
		topic    string // name accepted by `jmake explain`
		mdMsg    MarkdownMsg
		extLinks []HttpLink
		matches  func(error) bool
	}
)

func (i *Issue) Id() Id { return i.id }

// Topic returns the name used to look the issue up from the command line.
func (i *Issue) Topic() string { return i.topic }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Title returns the text of the message's first heading.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return i.topic
}

// Render returns the explanation rendered for a terminal. stylePath is a
// glamour style name or JSON style file such as "dark", "light" or "notty".
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

var (
	render = glamour.Render

	workspaceNotFoundIssue = &Issue{
		id:      WorkspaceNotFoundId,
		topic:   "workspace-not-found",
		matches: is(jmakefile.ErrNotFound),
		mdMsg: `
# No jmake.cue found

jmake looks for a ` + "`jmake.cue`" + ` file in the current directory and then in
each parent directory up to the filesystem root.

## Things you can try
- Run jmake from inside your workspace
- Point at the file explicitly:
~~~
$ jmake generate -f path/to/jmake.cue
~~~

## Minimal workspace
~~~cue
workspace: "engine"
projects: [{
	name: "app"
	sources: ["src/**/*.cpp"]
}]
~~~`,
	}

	workspaceParseErrorIssue = &Issue{
		id:    WorkspaceParseErrorId,
		topic: "workspace-parse",
		matches: func(err error) bool {
			var ve *cueutil.ValidationError
			if errors.As(err, &ve) {
				base := filepath.Base(ve.FilePath)
				return base == jmakefile.FileName || base == fetch.ManifestName
			}
			return errors.Is(err, cueutil.ErrFileTooLarge)
		},
		mdMsg: `
# The workspace file is invalid

` + "`jmake.cue`" + ` failed CUE validation. The message names the field path
that did not match.

## Common causes
- A project without a ` + "`name`" + `
- A ` + "`kind`" + ` other than executable, static_lib or shared_lib
- A package dependency without a ` + "`source`" + `
- A setting or define holding a list or struct (only strings, numbers and booleans are allowed)`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	pathNotFoundIssue = &Issue{
		id:      PathNotFoundId,
		topic:   "path-not-found",
		matches: is(pathresolve.ErrPathNotFound),
		mdMsg: `
# A listed path does not exist

Literal entries in ` + "`sources`" + `, ` + "`modules`" + `, ` + "`includes`" + ` and ` + "`excludes`" + `
must exist on disk. Glob patterns that match nothing are allowed.

## Things you can try
- Check the spelling relative to the project directory
- Use a glob such as ` + "`src/*.cpp`" + ` when the file is optional`,
	}

	invalidPatternIssue = &Issue{
		id:      InvalidPatternId,
		topic:   "invalid-pattern",
		matches: is(pathresolve.ErrInvalidPattern),
		mdMsg: `
# Malformed glob pattern

Patterns support ` + "`*`" + `, ` + "`?`" + `, ` + "`[...]`" + `, ` + "`{a,b}`" + ` and ` + "`**`" + ` for any
number of directories. An unclosed bracket or brace is rejected.`,
		extLinks: []HttpLink{"https://github.com/bmatcuk/doublestar#patterns"},
	}

	unknownFilterIssue = &Issue{
		id:      UnknownFilterId,
		topic:   "unknown-variant",
		matches: is(workspace.ErrUnknownFilter),
		mdMsg: `
# Unknown build variant

The requested variant is not defined as a filter on the project.

## Things you can try
- Add it to the project:
~~~cue
filters: debug: settings: optimize: false
~~~
- Or generate without a variant to use the base configuration`,
	}

	moduleCycleIssue = &Issue{
		id:      ModuleCycleId,
		topic:   "module-cycle",
		matches: is(modgraph.ErrModuleCycle),
		mdMsg: `
# Module import cycle

Module interface units must form a DAG. The error lists the cycle with the
first module repeated at the end, for example ` + "`[a b a]`" + `.

## Things you can try
- Move the shared declarations into a new module both can import
- Turn one import into a module partition`,
	}

	duplicateModuleIssue = &Issue{
		id:      DuplicateModuleId,
		topic:   "duplicate-module",
		matches: is(modgraph.ErrDuplicateModule),
		mdMsg: `
# Two files export the same module

Each ` + "`export module X;`" + ` name may be declared by exactly one file in a
project. Rename one of them or exclude the stale copy.`,
	}

	sourceModuleOverlapIssue = &Issue{
		id:      SourceModuleOverlapId,
		topic:   "source-module-overlap",
		matches: is(workspace.ErrSourceModuleOverlap),
		mdMsg: `
# File listed as both source and module

A file must be either a plain translation unit or a module interface unit.
Narrow the ` + "`sources`" + ` glob or add the module file to ` + "`excludes`" + `.`,
	}

	unknownBuiltinIssue = &Issue{
		id:      UnknownBuiltinId,
		topic:   "unknown-builtin",
		matches: is(workspace.ErrUnknownBuiltin),
		mdMsg: `
# Unknown builtin dependency

Builtins name system facilities known to jmake: ` + "`vulkan`" + `, ` + "`threads`" + `,
` + "`math`" + `, ` + "`dl`" + `, ` + "`opengl`" + ` and ` + "`win32`" + `.
Anything else has to be a package dependency with a ` + "`source`" + `.`,
	}

	requireCycleIssue = &Issue{
		id:      RequireCycleId,
		topic:   "require-cycle",
		matches: is(fetch.ErrRequireCycle),
		mdMsg: `
# Package require cycle

A package manifest (` + "`jmakepkg.cue`" + `) requires a package that, directly or
transitively, requires it back. Break the cycle in one of the manifests.`,
	}

	dependencyFetchIssue = &Issue{
		id:      DependencyFetchId,
		topic:   "dependency-fetch",
		matches: is(workspace.ErrDependencyFetch),
		mdMsg: `
# A package dependency could not be fetched

## Common causes
- The local directory does not exist or has no ` + "`jmakepkg.cue`" + `
- The git remote is unreachable or needs credentials
- The requested ` + "`version`" + ` tag does not exist

## Things you can try
- For private remotes set ` + "`GITHUB_TOKEN`" + `, ` + "`GITLAB_TOKEN`" + ` or ` + "`GIT_TOKEN`" + `, or load an SSH key into your agent
- Clear the cache directory shown by ` + "`jmake config show`" + `
- Check that the version is a semantic version such as ` + "`v1.2.0`" + ``,
		extLinks: []HttpLink{"https://semver.org"},
	}

	defineConflictIssue = &Issue{
		id:      DefineConflictId,
		topic:   "define-conflict",
		matches: is(workspace.ErrDefineConflict),
		mdMsg: `
# Conflicting preprocessor define

Two contributors set the same define to different values. Contributors are
the project itself, its dependencies and matching platform rules.

## Things you can try
- Remove the define from one side
- Make the values agree`,
	}

	duplicateProjectIssue = &Issue{
		id:      DuplicateProjectId,
		topic:   "duplicate-project",
		matches: is(workspace.ErrDuplicateProject),
		mdMsg: `
# Duplicate project name

Project names are unique within a workspace; they name output artifacts and
build directories.`,
	}

	invalidProjectIssue = &Issue{
		id:      InvalidProjectId,
		topic:   "invalid-project",
		matches: is(workspace.ErrInvalidProject),
		mdMsg: `
# Invalid project

Project names start with a letter or underscore and contain only letters,
digits, ` + "`_`" + `, ` + "`.`" + ` and ` + "`-`" + `. Names reserved by Windows such as ` + "`CON`" + `
or ` + "`NUL`" + ` are rejected because they cannot be used as file names there.`,
	}

	unknownCommandIssue = &Issue{
		id:      UnknownCommandId,
		topic:   "unknown-command",
		matches: is(extension.ErrUnknownCommand),
		mdMsg: `
# Unknown extension command

Run ` + "`jmake --help`" + ` to list the registered extension commands.`,
	}

	unknownBackendIssue = &Issue{
		id:      UnknownBackendId,
		topic:   "unknown-backend",
		matches: is(emit.ErrUnknownBackend),
		mdMsg: `
# Unknown generator backend

Supported backends are ` + "`ninja`" + `, ` + "`toml`" + ` and ` + "`all`" + `. Set one with
` + "`--backend`" + ` or ` + "`generate.backend`" + ` in the config file.`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		topic: "config",
		matches: func(err error) bool {
			var ve *cueutil.ValidationError
			return errors.As(err, &ve)
		},
		mdMsg: `
# Configuration could not be loaded

jmake reads ` + "`config.cue`" + ` from ` + "`$XDG_CONFIG_HOME/jmake`" + ` (or the platform
equivalent), or from the file passed with ` + "`--config`" + `. Every key can
also be set from the environment with the ` + "`JMAKE_`" + ` prefix, for example
` + "`JMAKE_GENERATE_BACKEND=toml`" + `.

## Example
~~~cue
cache_dir: "/tmp/jmake-cache"
generate: {
	backend: "ninja"
	out_dir: "build"
}
toolchain: cxx: "clang++"
shader: jobs: 8
~~~`,
	}

	shaderCompileFailedIssue = &Issue{
		id:    ShaderCompileFailedId,
		topic: "shader",
		mdMsg: `
# Shader compilation failed

` + "`jmake shader`" + ` compiles every ` + "`.vert`" + ` and ` + "`.frag`" + ` file directly under
` + "`assets/`" + ` into a ` + "`.spv`" + ` file next to it. A failing file does not stop
the others; its compiler output is printed under its name.

## Things you can try
- Check that the compiler is on your PATH, or pass ` + "`--compiler`" + `
- Lower ` + "`--jobs`" + ` to read interleaved diagnostics more easily`,
	}

	// catalog order decides which entry ForError picks when an error matches
	// several; more specific entries come first.
	catalog = []*Issue{
		workspaceNotFoundIssue,
		workspaceParseErrorIssue,
		pathNotFoundIssue,
		invalidPatternIssue,
		unknownFilterIssue,
		moduleCycleIssue,
		duplicateModuleIssue,
		sourceModuleOverlapIssue,
		unknownBuiltinIssue,
		requireCycleIssue,
		dependencyFetchIssue,
		defineConflictIssue,
		duplicateProjectIssue,
		invalidProjectIssue,
		unknownCommandIssue,
		unknownBackendIssue,
		configLoadFailedIssue,
		shaderCompileFailedIssue,
	}

	issues = func() map[Id]*Issue {
		m := make(map[Id]*Issue, len(catalog))
		for _, i := range catalog {
			m[i.id] = i
		}
		return m
	}()
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by topic name.
func Lookup(topic string) (*Issue, bool) {
	for _, i := range catalog {
		if i.topic == topic {
			return i, true
		}
	}
	return nil, false
}

// Topics lists every topic name in sorted order.
func Topics() []string {
	topics := make([]string, 0, len(catalog))
	for _, i := range catalog {
		topics = append(topics, i.topic)
	}
	slices.Sort(topics)
	return topics
}

// ForError returns the issue explaining err, or nil.
func ForError(err error) *Issue {
	if err == nil {
		return nil
	}
	for _, i := range catalog {
		if i.matches != nil && i.matches(err) {
			return i
		}
	}
	return nil
}
