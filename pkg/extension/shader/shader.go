// SPDX-License-Identifier: MPL-2.0

package shader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AssetDir is the directory, relative to the workspace root, scanned for shaders.
const AssetDir = "assets"

// OutputExt is appended to a shader's file name to form its output.
const OutputExt = ".spv"

// Extensions are the shader stages compiled.
var Extensions = []string{".vert", ".frag"}

// File statuses.
const (
	StatusCompiled Status = "compiled"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

type (
	// Status is the outcome of one file.
	Status string

	// FileResult reports one shader.
	FileResult struct {
		Input    string
		Output   string
		Status   Status
		ExitCode int
		Log      []byte
		// Err is set when the compiler could not be run at all.
		Err error
	}

	// Report collects the per-file results in discovery order.
	Report struct {
		Files []FileResult
	}

	// Runner compiles a directory of shaders.
	Runner struct {
		Compiler Compiler
		// Jobs bounds concurrent compilations; values below 1 use the CPU count.
		Jobs int
		// Out receives each file's compiler output as one block.
		Out    io.Writer
		Logger *slog.Logger

		outMu sync.Mutex
	}
)

// Discover returns the shaders directly inside dir, sorted.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan shader assets: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !slices.Contains(Extensions, filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// Run compiles every shader in dir. Per-file failures are recorded in the
// report; the error is non-nil only when dir cannot be read or ctx was
// cancelled before every file started.
func (r *Runner) Run(ctx context.Context, dir string) (*Report, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	report := &Report{Files: make([]FileResult, len(files))}

	var g errgroup.Group
	g.SetLimit(r.jobs())
	for i, input := range files {
		report.Files[i] = FileResult{Input: input, Output: input + OutputExt, Status: StatusSkipped}
		if ctx.Err() != nil {
			continue
		}
		g.Go(func() error {
			// Queued behind the job limit; a cancellation in the meantime skips it.
			if ctx.Err() != nil {
				return nil
			}
			report.Files[i] = r.compile(input)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers record failures in the report

	if report.Skipped() > 0 {
		return report, ctx.Err()
	}
	return report, nil
}

func (r *Runner) compile(input string) FileResult {
	fr := FileResult{Input: input, Output: input + OutputExt}
	res, err := r.Compiler.Compile(fr.Input, fr.Output)
	switch {
	case err != nil:
		fr.Status, fr.Err = StatusFailed, err
	case res.ExitCode != 0:
		fr.Status, fr.ExitCode, fr.Log = StatusFailed, res.ExitCode, res.Output
	default:
		fr.Status, fr.Log = StatusCompiled, res.Output
	}
	r.logger().Debug("shader compiled", "input", input, "status", fr.Status, "exit", fr.ExitCode)
	r.writeBlock(fr)
	return fr
}

// writeBlock writes one file's output without interleaving with others.
func (r *Runner) writeBlock(fr FileResult) {
	if r.Out == nil {
		return
	}
	r.outMu.Lock()
	defer r.outMu.Unlock()
	name := filepath.Base(fr.Input)
	switch {
	case fr.Err != nil:
		fmt.Fprintf(r.Out, "==> %s: %v\n", name, fr.Err)
	case fr.Status == StatusFailed:
		fmt.Fprintf(r.Out, "==> %s (exit %d)\n", name, fr.ExitCode)
	default:
		fmt.Fprintf(r.Out, "==> %s\n", name)
	}
	if len(fr.Log) > 0 {
		_, _ = r.Out.Write(fr.Log)
		if fr.Log[len(fr.Log)-1] != '\n' {
			_, _ = io.WriteString(r.Out, "\n")
		}
	}
}

func (r *Runner) jobs() int {
	if r.Jobs < 1 {
		return runtime.NumCPU()
	}
	return r.Jobs
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Count returns the number of files with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Compiled returns the number of compiled files.
func (r *Report) Compiled() int { return r.Count(StatusCompiled) }

// Failed returns the number of failed files.
func (r *Report) Failed() int { return r.Count(StatusFailed) }

// Skipped returns the number of abandoned files.
func (r *Report) Skipped() int { return r.Count(StatusSkipped) }

// Success reports whether every file compiled.
func (r *Report) Success() bool { return r.Compiled() == len(r.Files) }

// Summary renders the counts.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d compiled, %d failed, %d skipped", r.Compiled(), r.Failed(), r.Skipped())
}
