// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jmake/jmake/internal/issue"
	"github.com/jmake/jmake/internal/testutil"
	"github.com/jmake/jmake/pkg/cueutil"
)

func loadFromDir(t *testing.T, dir string) (*Config, string, error) {
	t.Helper()
	return NewProvider().Load(t.Context(), LoadOptions{ConfigDirPath: dir})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Generate.Backend != "ninja" {
		t.Errorf("Generate.Backend = %q, want ninja", cfg.Generate.Backend)
	}
	if cfg.Generate.OutDir != DefaultOutDir {
		t.Errorf("Generate.OutDir = %q, want %q", cfg.Generate.OutDir, DefaultOutDir)
	}
	if cfg.Toolchain.CXX != DefaultCXX || cfg.Toolchain.Std != DefaultStd {
		t.Errorf("Toolchain = %+v", cfg.Toolchain)
	}
	if cfg.Shader.Compiler != "glslc" || cfg.Shader.Jobs != 0 {
		t.Errorf("Shader = %+v", cfg.Shader)
	}
	if cfg.UI.Verbose {
		t.Error("UI.Verbose should default to false")
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = %v", errs)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestLoad_NoFile(t *testing.T) {
	cfg, path, err := loadFromDir(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestLoad_FromDir(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, want, `
generate: {
	backend: "toml"
	variant: "debug"
}
shader: jobs: 4
ui: verbose: true
`)

	cfg, path, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if cfg.Generate.Backend != "toml" || cfg.Generate.Variant != "debug" {
		t.Errorf("Generate = %+v", cfg.Generate)
	}
	if cfg.Generate.OutDir != DefaultOutDir {
		t.Errorf("unset out_dir should keep default, got %q", cfg.Generate.OutDir)
	}
	if cfg.Shader.Jobs != 4 || !cfg.UI.Verbose {
		t.Errorf("Shader = %+v, UI = %+v", cfg.Shader, cfg.UI)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestLoad_ExplicitFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, file, `toolchain: {cxx: "g++", std: "gnu++23"}`)

	cfg, path, err := NewProvider().Load(t.Context(), LoadOptions{
		ConfigFilePath: file,
		ConfigDirPath:  "/nonexistent",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != file {
		t.Errorf("path = %q, want %q", path, file)
	}
	if cfg.Toolchain.CXX != "g++" || cfg.Toolchain.Std != "gnu++23" {
		t.Errorf("Toolchain = %+v", cfg.Toolchain)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, _, err := NewProvider().Load(t.Context(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue"),
	})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("Load() error = %v, want ActionableError", err)
	}
	if ae.Operation != "load configuration" || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v", ae)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", `generate: backend: "make"`},
		{"negative jobs", `shader: jobs: -1`},
		{"unknown key", `colour: "red"`},
		{"bad std", `toolchain: std: "c99"`},
		{"blank cache dir", `cache_dir: "   "`},
		{"syntax error", `generate: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), tt.content)

			_, _, err := loadFromDir(t, dir)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var ve *cueutil.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Load() error = %v, want ValidationError in chain", err)
			}
			if i := issue.ForError(err); i == nil || i.Id() != issue.ConfigLoadFailedId {
				t.Errorf("ForError() = %v, want config topic", i)
			}
		})
	}
}

//nolint:paralleltest // mutates the process environment
func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `generate: backend: "toml"`)
	t.Setenv("JMAKE_GENERATE_BACKEND", "all")
	t.Setenv("JMAKE_SHADER_JOBS", "3")
	t.Setenv("JMAKE_CACHE_DIR", "/tmp/jmake-cache")

	cfg, _, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Generate.Backend != "all" {
		t.Errorf("environment should win over the file, got %q", cfg.Generate.Backend)
	}
	if cfg.Shader.Jobs != 3 {
		t.Errorf("Shader.Jobs = %d, want 3", cfg.Shader.Jobs)
	}
	if cfg.CacheDir != "/tmp/jmake-cache" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
}

//nolint:paralleltest // mutates the process environment
func TestLoad_EnvInvalid(t *testing.T) {
	t.Setenv("JMAKE_GENERATE_BACKEND", "make")

	_, _, err := loadFromDir(t, t.TempDir())
	if !errors.Is(err, ErrInvalidBackend) {
		t.Fatalf("Load() error = %v, want ErrInvalidBackend", err)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error should also match ErrInvalidConfig")
	}
	if !strings.Contains(err.Error(), `"make"`) {
		t.Errorf("error should name the value: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if _, _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

//nolint:paralleltest // AutomaticEnv reads the process environment
func TestGenerateCUE_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheDir = "/var/cache/jmake"
	cfg.Generate.Backend = "all"
	cfg.Generate.Variant = "release"
	cfg.Shader.Jobs = 6
	cfg.UI.Verbose = true

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), GenerateCUE(cfg))

	got, _, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

//nolint:paralleltest // uses the package-level config dir override
func TestCreateDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jmake")
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}
	if !strings.Contains(testutil.MustReadFile(t, path), `backend: "ninja"`) {
		t.Error("default config should name the ninja backend")
	}

	testutil.MustWriteFile(t, path, `ui: verbose: true`)
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() second call error = %v", err)
	}
	if got := testutil.MustReadFile(t, path); got != `ui: verbose: true` {
		t.Errorf("existing config was overwritten: %q", got)
	}
}

//nolint:paralleltest // modifies HOME and XDG variables
func TestConfigDir_Home(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies to Linux")
	}
	home := t.TempDir()
	testutil.SetHomeDir(t, home)

	dir, err := ConfigDir()
	if err != nil || dir != filepath.Join(home, ".config", AppName) {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
	cache, err := CacheDirPath("").Resolve()
	if err != nil || cache != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDirPath(\"\").Resolve() = %q, %v", cache, err)
	}

	xdg := t.TempDir()
	testutil.MustSetenv(t, "XDG_CONFIG_HOME", xdg)
	if dir, _ := ConfigDir(); dir != filepath.Join(xdg, AppName) {
		t.Errorf("ConfigDir() with XDG_CONFIG_HOME = %q", dir)
	}
	path, _ := ConfigFilePath()
	if path != filepath.Join(xdg, AppName, "config.cue") {
		t.Errorf("ConfigFilePath() = %q", path)
	}
}

func TestCacheDirPath(t *testing.T) {
	t.Parallel()

	if valid, _ := CacheDirPath("").IsValid(); !valid {
		t.Error("empty CacheDirPath should be valid")
	}
	if valid, errs := CacheDirPath(" \t").IsValid(); valid || !errors.Is(errs[0], ErrInvalidCacheDirPath) {
		t.Errorf("whitespace CacheDirPath IsValid() = %v, %v", valid, errs)
	}

	abs := filepath.Join(t.TempDir(), "cache")
	got, err := CacheDirPath(abs).Resolve()
	if err != nil || got != abs {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
}

func TestEmitOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Generate.OutDir = "out"
	opts := cfg.EmitOptions()
	if opts.OutDir != "out" || opts.CXX != DefaultCXX || opts.Std != DefaultStd {
		t.Errorf("EmitOptions() = %+v", opts)
	}
}
