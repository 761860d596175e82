package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newActionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List and apply post-processing actions",
	}
	cmd.AddCommand(newActionsListCommand(ctx))
	cmd.AddCommand(newActionsRunCommand(ctx))
	return cmd
}

func newActionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "Show available actions and which have been applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := exactlyOneProjectID(args)
			if err != nil {
				return err
			}
			mgr, _, err := ctx.manager(cmd, false)
			if err != nil {
				return err
			}
			statuses, err := mgr.Actions(id)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, statuses)
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				requires := s.Requires
				if requires == "" {
					requires = "-"
				}
				rows = append(rows, []string{s.Name, s.Mode, requires, yesNo(s.Completed), s.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Title: "Action"},
				{Title: "Mode"},
				{Title: "Requires"},
				{Title: "Applied"},
				{Title: "Description", Width: 50},
			}, rows))
			return nil
		},
	}
}

func newActionsRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id> <action> [action...]",
		Short: "Apply one or more actions in order",
		Long: "Apply actions to every working image of a project. The working set is copied\n" +
			"to the project's stash directory before each action.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			mgr, _, err := ctx.manager(cmd, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range args[1:] {
				if _, err := mgr.RunAction(cmd.Context(), id, name); err != nil {
					return fmt.Errorf("action %s: %w", name, err)
				}
				if !ctx.jsonOutput() {
					fmt.Fprintf(out, "Applied %s to %s\n", name, id)
				}
			}
			if ctx.jsonOutput() {
				proj, err := mgr.Get(id)
				if err != nil {
					return err
				}
				return writeJSON(cmd, proj)
			}
			return nil
		},
	}
}
