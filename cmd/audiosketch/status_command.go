package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiosketch/internal/logging"
	"audiosketch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipProvider bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, image tools and provider access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var pinger preflight.Pinger
			var providerNote string
			if !skipProvider {
				client, err := ctx.provider(logging.NewNop())
				if err != nil {
					providerNote = err.Error()
				} else {
					pinger = client
				}
			}
			results := preflight.RunAll(cmd.Context(), cfg, pinger)

			if ctx.jsonOutput() {
				return writeJSON(cmd, results)
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			for _, line := range renderHeading("System", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, r := range results {
				fmt.Fprintln(out, renderCheck(r.Name, resultState(r), r.Detail, colorize))
			}
			switch {
			case skipProvider:
				fmt.Fprintln(out, renderCheck("OpenAI API", checkSkipped, "offline", colorize))
			case providerNote != "":
				fmt.Fprintln(out, renderCheck("OpenAI API", checkDegraded, providerNote, colorize))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderCheckSummary(results, colorize))
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipProvider, "offline", false, "Skip the provider reachability check")
	return cmd
}
