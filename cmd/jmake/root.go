// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/jmake/jmake/internal/issue"
	"github.com/jmake/jmake/pkg/platform"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues are the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	file       string
	verbose    bool
	os         string
	arch       string
}

// NewRootCommand builds the jmake command tree. Running jmake without a
// subcommand generates build files.
func NewRootCommand(app *App) *cobra.Command {
	rf := &rootFlagValues{}
	gf := &generateFlagValues{}

	root := &cobra.Command{
		Use:   "jmake",
		Short: "Generate native build files from a declarative C++ workspace",
		Long: TitleStyle.Render("jmake") + SubtitleStyle.Render(" - declarative build descriptions for C++") + `

jmake reads a jmake.cue workspace, resolves every project's sources,
C++20 module units, dependencies and platform rules, and writes build
files for a native backend (ninja) or a TOML build-graph descriptor.

` + SubtitleStyle.Render("Examples:") + `
  jmake                        Generate with the configured backend
  jmake generate --variant debug
  jmake generate --watch       Regenerate whenever sources change
  jmake graph                  Show the resolved build plan
  jmake shader                 Compile assets/*.vert and assets/*.frag
  jmake explain module-cycle   Explain an error class`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, app, rf, gf)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/jmake/config.cue)")
	pf.StringVarP(&rf.file, "file", "f", "", "workspace file (default: nearest jmake.cue upwards)")
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&rf.os, "os", "", "generate for this OS ("+knownOSList()+") instead of the host")
	pf.StringVar(&rf.arch, "arch", "", "generate for this architecture instead of the host")

	bindGenerateFlags(root, gf)

	root.AddCommand(
		newGenerateCommand(app, rf),
		newGraphCommand(app, rf),
		newConfigCommand(app, rf),
		newExplainCommand(app),
	)
	for _, c := range extensionCommands(app, rf) {
		root.AddCommand(c)
	}

	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	return root
}

// knownOSList names the platforms rules are usually written for.
func knownOSList() string {
	names := make([]string, 0, len(platform.Known()))
	for _, o := range platform.Known() {
		names = append(names, o.String())
	}
	return strings.Join(names, ", ")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs jmake with the process arguments and exits with the
// command's status.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], Dependencies{}))
}

// run executes the command tree and returns the exit code.
func run(ctx context.Context, args []string, deps Dependencies) int {
	app, err := NewApp(deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitFailure
	}
	root := NewRootCommand(app)
	root.SetArgs(args)

	verbose := func() bool {
		v, _ := root.PersistentFlags().GetBool("verbose")
		return v
	}
	err = fang.Execute(ctx, root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			handleError(w, styles, err, verbose())
		}),
	)
	if err == nil {
		return 0
	}
	if exitErr, ok := errors.AsType[*ExitError](err); ok {
		return exitErr.Code
	}
	return ExitFailure
}

// handleError prints err with its suggestions. Usage errors keep fang's
// default rendering with the --help hint.
func handleError(w io.Writer, styles fang.Styles, err error, verbose bool) {
	if exitErr, ok := errors.AsType[*ExitError](err); ok && exitErr.Err == nil {
		return
	}
	if isUsageError(err) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown flag:", "unknown shorthand flag:", "unknown command", "flag needs an argument:", "invalid argument", "accepts "} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// formatErrorForDisplay renders err for non-fatal reporting, such as a failed
// regeneration in watch mode.
func formatErrorForDisplay(err error, verbose bool) string {
	if ae, ok := errors.AsType[*issue.ActionableError](err); ok {
		return ae.Format(verbose)
	}
	return err.Error()
}
