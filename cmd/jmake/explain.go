// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmake/jmake/internal/issue"
)

func newExplainCommand(app *App) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "explain [topic]",
		Short: "Explain an error class and how to fix it",
		Long: `Explain an error class and how to fix it.

Errors reported by jmake name the topic to look up. Without a topic,
explain lists every available one.`,
		Example: `  jmake explain
  jmake explain module-cycle`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return issue.Topics(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				listTopics(app)
				return nil
			}
			i, ok := issue.Lookup(args[0])
			if !ok {
				return issue.NewErrorContext().
					WithOperation("explain").
					WithResource(args[0]).
					WithSuggestion("Run 'jmake explain' to list the topics").
					Wrap(fmt.Errorf("unknown topic %q", args[0])).
					BuildError()
			}
			out, err := i.Render(style)
			if err != nil {
				return fmt.Errorf("render %s: %w", i.Topic(), err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	return cmd
}

func listTopics(app *App) {
	topics := issue.Topics()
	width := 0
	for _, t := range topics {
		width = max(width, len(t))
	}
	fmt.Fprintln(app.stdout, TitleStyle.Render("Topics"))
	for _, t := range topics {
		i, _ := issue.Lookup(t)
		pad := strings.Repeat(" ", width-len(t))
		fmt.Fprintf(app.stdout, "  %s%s  %s\n", CmdStyle.Render(t), pad, SubtitleStyle.Render(i.Title()))
	}
}
