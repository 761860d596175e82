package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"audiosketch/internal/config"
	"audiosketch/internal/journal"
	"audiosketch/internal/logging"
	"audiosketch/internal/services/openai"
	"audiosketch/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	journal *journal.Store
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes human-readable records to w and JSON records to the log file.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Writer:   w,
		FilePath: filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
	})
}

// provider builds the OpenAI client; it fails when no API key is configured.
func (c *commandContext) provider(logger *slog.Logger) (*openai.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return openai.NewClient(openai.Config{
		APIKey:             cfg.OpenAI.APIKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		TextModel:          cfg.OpenAI.TextModel,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
		TranscriptionMode:  cfg.OpenAI.TranscriptionMode,
		Timeout:            cfg.OpenAITimeout(),
	}, openai.WithLogger(logger))
}

// manager wires a workflow manager. withProvider is false for commands that
// never call the generation services, so they work without an API key.
func (c *commandContext) manager(cmd *cobra.Command, withProvider bool) (*workflow.Manager, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	deps := workflow.Dependencies{}
	if withProvider {
		client, err := c.provider(logger)
		if err != nil {
			return nil, nil, err
		}
		deps.Provider = client
	}
	if c.journal == nil {
		store, err := journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open journal: %w", err)
		}
		c.journal = store
	}
	deps.Journal = c.journal
	mgr, err := workflow.NewManager(cfg, logger, deps)
	if err != nil {
		return nil, nil, err
	}
	return mgr, logger, nil
}

func (c *commandContext) close() error {
	if c.journal == nil {
		return nil
	}
	err := c.journal.Close()
	c.journal = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func exactlyOneProjectID(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("a project id is required")
	}
	return strings.TrimSpace(args[0]), nil
}
