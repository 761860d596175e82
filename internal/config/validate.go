package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var imageSizePattern = regexp.MustCompile(`^[0-9]+x[0-9]+$`)

// Colour names become file markers ("--name"), so hyphens are not allowed.
var colorNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOpenAI(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateActions(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey reports a configuration error when no provider key is set.
// Commands that never reach the providers skip this check.
func (c *Config) RequireAPIKey() error {
	if c.OpenAI.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY env var or edit %s (create with 'audiosketch config init')", defaultPath)
}

func (c *Config) validateOpenAI() error {
	if c.OpenAI.TimeoutSeconds <= 0 {
		return errors.New("openai.timeout_seconds must be positive")
	}
	switch c.OpenAI.TranscriptionMode {
	case transcriptionModeTranslate, transcriptionModeTranscribe:
	default:
		return fmt.Errorf("openai.transcription_mode: unsupported value %q (want translate or transcribe)", c.OpenAI.TranscriptionMode)
	}
	return nil
}

func (c *Config) validateImages() error {
	if !imageSizePattern.MatchString(c.Images.Size) {
		return fmt.Errorf("images.size: invalid value %q (want WIDTHxHEIGHT)", c.Images.Size)
	}
	switch c.Images.Quality {
	case "standard", "hd", "low", "medium", "high":
	default:
		return fmt.Errorf("images.quality: unsupported value %q", c.Images.Quality)
	}
	if !slices.Contains(c.Images.Models, c.Images.DefaultModel) {
		return fmt.Errorf("images.default_model %q must be listed in images.models", c.Images.DefaultModel)
	}
	return nil
}

func (c *Config) validateActions() error {
	for name, hex := range c.Actions.Colors {
		if !colorNamePattern.MatchString(name) {
			return fmt.Errorf("actions.colors: invalid colour name %q (lowercase letters, digits and underscores)", name)
		}
		if !hexColorPattern.MatchString(hex) {
			return fmt.Errorf("actions.colors.%s: invalid hex colour %q", name, hex)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
