package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"audiosketch/internal/api"
	"audiosketch/internal/logging"
	"audiosketch/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mgr, logger, err := ctx.manager(cmd, true)
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "serve")

			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "audiosketch*.log",
				Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
			})
			if cfg.Logging.RetentionDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -cfg.Logging.RetentionDays)
				if removed, err := ctx.journal.Prune(cmd.Context(), cutoff); err != nil {
					logging.WarnWithContext(logger, "journal prune failed", "journal_prune_failed", logging.Error(err))
				} else if removed > 0 {
					logger.Info("journal pruned", logging.Int("removed", int(removed)))
				}
			}

			client, err := ctx.provider(logger)
			if err != nil {
				return err
			}
			for _, failed := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg, client)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failure",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldImpact, "requests that depend on it will fail"),
				)
			}

			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = cfg.Paths.APIBind
			}
			server := api.NewServer(mgr, logger, api.WithLogFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName)))
			return server.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
