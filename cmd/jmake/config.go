// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmake/jmake/internal/config"
	"github.com/jmake/jmake/internal/issue"
)

// configKeys are the keys accepted by `jmake config set`, in display order.
var configKeys = []string{
	"cache_dir",
	"generate.backend",
	"generate.out_dir",
	"generate.variant",
	"toolchain.cxx",
	"toolchain.std",
	"shader.compiler",
	"shader.jobs",
	"ui.verbose",
}

// newConfigCommand creates the `jmake config` command tree.
func newConfigCommand(app *App, rf *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage jmake configuration",
		Long: `Manage jmake configuration.

Configuration is stored in:
  - Linux: ~/.config/jmake/config.cue
  - macOS: ~/Library/Application Support/jmake/config.cue
  - Windows: %APPDATA%\jmake\config.cue

Every key can also be set through the environment, for example
JMAKE_GENERATE_BACKEND=all or JMAKE_SHADER_JOBS=4.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := app.loadConfig(cmd.Context(), rf)
			if err != nil {
				return configLoadError(err)
			}
			showConfig(app.stdout, cfg, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", dir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the default config file.\n\nKeys:\n  " + strings.Join(configKeys, "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), rf)
			if err != nil {
				return configLoadError(err)
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if ok, errs := cfg.IsValid(); !ok {
				return fmt.Errorf("%s: %w", args[0], errors.Join(errs...))
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s = %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(args[0]), args[1])
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), rf)
			if err != nil {
				return configLoadError(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(v string) string {
		if v == "" {
			return SubtitleStyle.Render("(unset)")
		}
		return valueStyle.Render(v)
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("cache_dir"), value(cfg.CacheDir.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("generate"))
	fmt.Fprintf(w, "  backend: %s\n", value(cfg.Generate.Backend))
	fmt.Fprintf(w, "  out_dir: %s\n", value(cfg.Generate.OutDir))
	fmt.Fprintf(w, "  variant: %s\n", value(cfg.Generate.Variant))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("toolchain"))
	fmt.Fprintf(w, "  cxx: %s\n", value(cfg.Toolchain.CXX))
	fmt.Fprintf(w, "  std: %s\n", value(cfg.Toolchain.Std))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("shader"))
	fmt.Fprintf(w, "  compiler: %s\n", value(cfg.Shader.Compiler))
	fmt.Fprintf(w, "  jobs: %s\n", valueStyle.Render(strconv.Itoa(cfg.Shader.Jobs)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "cache_dir":
		cfg.CacheDir = config.CacheDirPath(value)
	case "generate.backend":
		cfg.Generate.Backend = value
	case "generate.out_dir":
		cfg.Generate.OutDir = value
	case "generate.variant":
		cfg.Generate.Variant = value
	case "toolchain.cxx":
		cfg.Toolchain.CXX = value
	case "toolchain.std":
		cfg.Toolchain.Std = value
	case "shader.compiler":
		cfg.Shader.Compiler = value
	case "shader.jobs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("shader.jobs: %q is not an integer", value)
		}
		cfg.Shader.Jobs = n
	case "ui.verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.verbose: %q is not a boolean", value)
		}
		cfg.UI.Verbose = b
	default:
		return fmt.Errorf("unknown configuration key %q (valid keys: %s)", key, strings.Join(configKeys, ", "))
	}
	return nil
}

// configLoadError adds recovery hints to a configuration failure.
func configLoadError(err error) error {
	if _, ok := errors.AsType[*issue.ActionableError](err); ok {
		return err
	}
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithSuggestion("Run 'jmake config dump' with JMAKE_* variables unset to see the defaults").
		WithSuggestion("Edit or remove " + configFileHint()).
		Wrap(err).
		WithExplanation().
		BuildError()
}

func configFileHint() string {
	if path, err := config.ConfigFilePath(); err == nil {
		return path
	}
	return "the config file"
}
