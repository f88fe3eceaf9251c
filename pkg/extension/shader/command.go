// SPDX-License-Identifier: MPL-2.0

package shader

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/jmake/jmake/pkg/extension"
	"github.com/jmake/jmake/pkg/workspace"
)

// CommandName is the name the shader command registers under.
const CommandName = "shader"

// Options configure the shader command.
type Options struct {
	// Compiler is the default compiler executable.
	Compiler string
	// Jobs is the default concurrency; below 1 uses the CPU count.
	Jobs   int
	Out    io.Writer
	Logger *slog.Logger
	// NewCompiler builds the Compiler for an executable path. Defaults to ExecCompiler.
	NewCompiler func(path string) Compiler
}

// Command returns the shader extension command.
func Command(opts Options) extension.Command {
	if opts.Compiler == "" {
		opts.Compiler = DefaultCompiler
	}
	if opts.NewCompiler == nil {
		opts.NewCompiler = func(path string) Compiler { return ExecCompiler{Path: path} }
	}
	return extension.Command{
		Name:  CommandName,
		Short: "Compile assets/*.vert and assets/*.frag to SPIR-V",
		Flags: []extension.Flag{
			{Name: "compiler", Default: opts.Compiler, Usage: "shader compiler executable"},
			{Name: "jobs", Default: strconv.Itoa(opts.Jobs), Usage: "maximum concurrent compilations (0 = CPU count)"},
		},
		Handler: func(ctx context.Context, ws *workspace.Workspace, args extension.Args) (extension.Outcome, error) {
			jobs, err := args.Int("jobs", opts.Jobs)
			if err != nil {
				return extension.Outcome{}, err
			}
			r := &Runner{
				Compiler: opts.NewCompiler(args.Values["compiler"]),
				Jobs:     jobs,
				Out:      opts.Out,
				Logger:   opts.Logger,
			}
			report, err := r.Run(ctx, filepath.Join(ws.Root, AssetDir))
			if report == nil {
				return extension.Outcome{}, err
			}
			return extension.Outcome{Success: report.Success(), Summary: report.Summary()}, err
		},
	}
}
