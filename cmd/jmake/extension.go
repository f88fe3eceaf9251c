// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmake/jmake/internal/config"
	"github.com/jmake/jmake/internal/issue"
	"github.com/jmake/jmake/pkg/extension"
	"github.com/jmake/jmake/pkg/extension/shader"
)

// extensionCommands exposes every registered extension as a subcommand.
func extensionCommands(app *App, rf *rootFlagValues) []*cobra.Command {
	var cmds []*cobra.Command
	for _, ext := range app.Registry.Commands() {
		cmds = append(cmds, newExtensionCommand(app, rf, ext))
	}
	return cmds
}

func newExtensionCommand(app *App, rf *rootFlagValues, ext extension.Command) *cobra.Command {
	values := make(map[string]*string, len(ext.Flags))
	cmd := &cobra.Command{
		Use:   ext.Name + " [args...]",
		Short: ext.Short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openSession(ctx, rf)
			if err != nil {
				return err
			}

			given := configuredFlagValues(s.cfg, ext.Name)
			for name, v := range values {
				if cmd.Flags().Changed(name) {
					given[name] = *v
				}
			}
			app.logger.Debug("dispatching extension command", "command", ext.Name, "values", given)

			outcome, err := app.Registry.Dispatch(ctx, ext.Name, s.ws, extension.Args{
				Positional: args,
				Values:     given,
			})
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("run " + ext.Name).
					WithResource(s.ws.Root).
					Wrap(err).
					WithExplanation().
					BuildError()
			}
			if !outcome.Success {
				fmt.Fprintln(app.stderr, ErrorStyle.Render("✗")+" "+outcome.Summary)
				return &ExitError{Code: ExitCommandFailed}
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" "+outcome.Summary)
			return nil
		},
	}
	for _, f := range ext.Flags {
		values[f.Name] = cmd.Flags().String(f.Name, f.Default, f.Usage)
	}
	return cmd
}

// configuredFlagValues returns the flag values the configuration supplies for
// a built-in extension.
func configuredFlagValues(cfg *config.Config, name string) map[string]string {
	values := map[string]string{}
	if name == shader.CommandName {
		if cfg.Shader.Compiler != "" {
			values["compiler"] = cfg.Shader.Compiler
		}
		values["jobs"] = strconv.Itoa(cfg.Shader.Jobs)
	}
	return values
}
