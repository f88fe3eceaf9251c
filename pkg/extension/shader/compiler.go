// SPDX-License-Identifier: MPL-2.0

package shader

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// DefaultCompiler is the compiler executable used when none is configured.
const DefaultCompiler = "glslc"

type (
	// Result is a finished compiler process.
	Result struct {
		ExitCode int
		// Output is the combined stdout and stderr.
		Output []byte
	}

	// Compiler turns one shader source into SPIR-V.
	Compiler interface {
		// Compile returns an error only when the compiler could not be run;
		// a non-zero exit is reported through Result.
		Compile(input, output string) (Result, error)
	}

	// CompilerFunc adapts a function to the Compiler interface.
	CompilerFunc func(input, output string) (Result, error)

	// ExecCompiler runs an external compiler process.
	ExecCompiler struct {
		Path string
	}
)

// Compile calls f(input, output).
func (f CompilerFunc) Compile(input, output string) (Result, error) { return f(input, output) }

// Compile runs `Path input -o output`. The process is not tied to a context
// so that a cancelled run never leaves half-written outputs.
func (c ExecCompiler) Compile(input, output string) (Result, error) {
	path := c.Path
	if path == "" {
		path = DefaultCompiler
	}
	var out bytes.Buffer
	cmd := exec.Command(path, input, "-o", output) //nolint:gosec // compiler path comes from user configuration
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Result{Output: out.Bytes()}, nil
	case errors.As(err, &exitErr):
		return Result{ExitCode: exitErr.ExitCode(), Output: out.Bytes()}, nil
	default:
		return Result{}, fmt.Errorf("run shader compiler %s: %w", path, err)
	}
}
