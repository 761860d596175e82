package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"audiosketch/internal/logging"
	"audiosketch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var projectID string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			printLines := func(batch []string) {
				for _, line := range batch {
					if !raw {
						line = logs.Format(line)
					}
					fmt.Fprintln(out, line)
				}
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
				Offset:    -1,
				Limit:     lines,
				ProjectID: projectID,
			})
			if err != nil {
				return err
			}
			printLines(result.Lines)
			for follow {
				result, err = logs.Tail(cmd.Context(), path, logs.TailOptions{
					Offset:    result.Offset,
					Follow:    true,
					Wait:      30 * time.Second,
					ProjectID: projectID,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				printLines(result.Lines)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records until interrupted")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only show records for this project")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unformatted")
	return cmd
}
