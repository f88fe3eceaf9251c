// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmake/jmake/pkg/emit"
	"github.com/jmake/jmake/pkg/extension/shader"
)

const (
	// DefaultCXX is the compiler driver written into generated build files.
	DefaultCXX = "clang++"
	// DefaultStd is the language standard passed to the compiler.
	DefaultStd = "c++20"
	// DefaultOutDir is the generated-file directory relative to the workspace root.
	DefaultOutDir = "build"
)

var (
	// ErrInvalidBackend is returned when generate.backend names no emitter.
	ErrInvalidBackend = errors.New("invalid generate backend")
	// ErrInvalidJobs is returned when shader.jobs is negative.
	ErrInvalidJobs = errors.New("invalid shader jobs")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// CacheDirPath is where fetched package sources are kept. The zero value
	// means the user cache directory.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// InvalidBackendError is returned for an unsupported generate.backend.
	InvalidBackendError struct {
		Value string
	}

	// InvalidJobsError is returned for a negative shader.jobs value.
	InvalidJobsError struct {
		Value int
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// CacheDir receives cloned package repositories.
		CacheDir  CacheDirPath    `json:"cache_dir" mapstructure:"cache_dir"`
		Generate  GenerateConfig  `json:"generate" mapstructure:"generate"`
		Toolchain ToolchainConfig `json:"toolchain" mapstructure:"toolchain"`
		Shader    ShaderConfig    `json:"shader" mapstructure:"shader"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// GenerateConfig configures `jmake generate`.
	GenerateConfig struct {
		// Backend selects the emitter: ninja, toml or all.
		Backend string `json:"backend" mapstructure:"backend"`
		// OutDir is relative to the workspace root unless absolute.
		OutDir string `json:"out_dir" mapstructure:"out_dir"`
		// Variant is the filter applied when --variant is not given.
		Variant string `json:"variant" mapstructure:"variant"`
	}

	// ToolchainConfig names the compiler used by generated build files.
	ToolchainConfig struct {
		CXX string `json:"cxx" mapstructure:"cxx"`
		Std string `json:"std" mapstructure:"std"`
	}

	// ShaderConfig configures the shader extension command.
	ShaderConfig struct {
		Compiler string `json:"compiler" mapstructure:"compiler"`
		// Jobs bounds concurrent compilations; 0 uses the CPU count.
		Jobs int `json:"jobs" mapstructure:"jobs"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Resolve returns the cache directory, defaulting to <user cache>/jmake.
func (p CacheDirPath) Resolve() (string, error) {
	if p != "" {
		return filepath.Abs(string(p))
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// Error implements the error interface for InvalidBackendError.
func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid generate backend %q (valid: %s)", e.Value, strings.Join(emit.Backends(), ", "))
}

// Unwrap returns ErrInvalidBackend for errors.Is() compatibility.
func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }

// Error implements the error interface for InvalidJobsError.
func (e *InvalidJobsError) Error() string {
	return fmt.Sprintf("invalid shader jobs %d: must not be negative", e.Value)
}

// Unwrap returns ErrInvalidJobs for errors.Is() compatibility.
func (e *InvalidJobsError) Unwrap() error { return ErrInvalidJobs }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields. The schema already
// covers file input; this catches values that arrive from the environment.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.CacheDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if !slices.Contains(emit.Backends(), c.Generate.Backend) {
		errs = append(errs, &InvalidBackendError{Value: c.Generate.Backend})
	}
	if c.Shader.Jobs < 0 {
		errs = append(errs, &InvalidJobsError{Value: c.Shader.Jobs})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// EmitOptions converts the generate and toolchain sections for the emitters.
func (c Config) EmitOptions() emit.Options {
	return emit.Options{
		OutDir: c.Generate.OutDir,
		CXX:    c.Toolchain.CXX,
		Std:    c.Toolchain.Std,
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheDir: "",
		Generate: GenerateConfig{
			Backend: emit.BackendNinja,
			OutDir:  DefaultOutDir,
		},
		Toolchain: ToolchainConfig{
			CXX: DefaultCXX,
			Std: DefaultStd,
		},
		Shader: ShaderConfig{
			Compiler: shader.DefaultCompiler,
			Jobs:     0,
		},
	}
}
