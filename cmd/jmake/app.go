// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/jmake/jmake/internal/config"
	"github.com/jmake/jmake/internal/issue"
	"github.com/jmake/jmake/pkg/extension"
	"github.com/jmake/jmake/pkg/extension/shader"
	"github.com/jmake/jmake/pkg/jmakefile"
	"github.com/jmake/jmake/pkg/platform"
	"github.com/jmake/jmake/pkg/workspace"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration, extensions and output
	// through it.
	App struct {
		Config   config.Provider
		Registry *extension.Registry
		// Host reports the machine generation targets unless --os/--arch
		// override it.
		Host   func() platform.Context
		stdout io.Writer
		stderr io.Writer
		log    *log.Logger
		logger *slog.Logger
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config   config.Provider
		Registry *extension.Registry
		Host     func() platform.Context
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// session is the state shared by one command invocation.
	session struct {
		cfg     *config.Config
		cfgPath string
		file    string
		ws      *workspace.Workspace
		host    platform.Context
	}
)

// NewApp builds an App, filling unset dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Host == nil {
		deps.Host = platform.Detect
	}

	charm := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix: "jmake",
		Level:  log.InfoLevel,
	})
	app := &App{
		Config: deps.Config,
		Host:   deps.Host,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		log:    charm,
		logger: slog.New(charm),
	}

	app.Registry = deps.Registry
	if app.Registry == nil {
		app.Registry = extension.NewRegistry()
		if err := app.Registry.Register(shader.Command(shader.Options{
			Out:    app.stdout,
			Logger: app.logger,
		})); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Logger returns the structured logger used by library components.
func (a *App) Logger() *slog.Logger { return a.logger }

// SetVerbose switches debug logging on or off.
func (a *App) SetVerbose(v bool) {
	if v {
		a.log.SetLevel(log.DebugLevel)
		return
	}
	a.log.SetLevel(log.InfoLevel)
}

// loadConfig reads the tool configuration and applies ui.verbose.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, string, error) {
	cfg, path, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, "", err
	}
	a.SetVerbose(flags.verbose || cfg.UI.Verbose)
	return cfg, path, nil
}

// openSession loads configuration and the workspace and fixes the host.
func (a *App) openSession(ctx context.Context, flags *rootFlagValues) (*session, error) {
	cfg, cfgPath, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, configLoadError(err)
	}
	host, err := a.host(flags)
	if err != nil {
		return nil, err
	}
	file, err := locateWorkspace(flags.file)
	if err != nil {
		return nil, err
	}
	ws, err := loadWorkspace(file)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("workspace loaded", "file", file, "projects", len(ws.Projects()), "host", host.String())
	return &session{cfg: cfg, cfgPath: cfgPath, file: file, ws: ws, host: host}, nil
}

// host returns the detected platform with --os and --arch applied.
func (a *App) host(flags *rootFlagValues) (platform.Context, error) {
	host := a.Host()
	if flags.os != "" {
		target := platform.OS(flags.os)
		if err := target.Validate(); err != nil {
			return platform.Context{}, fmt.Errorf("--os: %w", err)
		}
		host.OS = target
	}
	if flags.arch != "" {
		host.Arch = flags.arch
	}
	return host, nil
}

// locateWorkspace returns the explicit --file or searches upward from the
// working directory.
func locateWorkspace(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		return abs, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	file, err := jmakefile.Find(wd)
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("find workspace").
			WithResource(wd).
			WithSuggestion("Run jmake inside a directory tree containing " + jmakefile.FileName).
			WithSuggestion("Pass the file explicitly with --file").
			Wrap(err).
			WithExplanation().
			BuildError()
	}
	return file, nil
}

func loadWorkspace(file string) (*workspace.Workspace, error) {
	ws, err := jmakefile.Load(file)
	if err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("load workspace").
			WithResource(file).
			Wrap(err)
		if errors.Is(err, os.ErrNotExist) {
			ctx.WithSuggestion("Check the --file path")
		}
		return nil, ctx.WithExplanation().BuildError()
	}
	return ws, nil
}
