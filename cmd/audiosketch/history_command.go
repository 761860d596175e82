package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show stage and action runs for a project",
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
			entries, err := mgr.History(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded for %s\n", id)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				detail := e.ErrorClass
				if e.Message != "" {
					detail = e.Message
				}
				rows = append(rows, []string{
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					e.Kind,
					e.Name,
					string(e.Status),
					e.Duration.Round(time.Millisecond).String(),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Title: "Started"},
				{Title: "Kind"},
				{Title: "Name"},
				{Title: "Status"},
				{Title: "Duration", Right: true},
				{Title: "Detail", Width: promptWidth},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}
