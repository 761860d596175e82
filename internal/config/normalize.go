package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenAI()
	c.normalizeImages()
	if err := c.normalizeActions(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectsDir) == "" {
		c.Paths.ProjectsDir = defaultProjectsDir
	}
	if c.Paths.ProjectsDir, err = expandPath(c.Paths.ProjectsDir); err != nil {
		return fmt.Errorf("paths.projects_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if value, ok := os.LookupEnv("OPENAI_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.TextModel = strings.TrimSpace(c.OpenAI.TextModel)
	if c.OpenAI.TextModel == "" {
		c.OpenAI.TextModel = defaultTextModel
	}
	c.OpenAI.TranscriptionModel = strings.TrimSpace(c.OpenAI.TranscriptionModel)
	if c.OpenAI.TranscriptionModel == "" {
		c.OpenAI.TranscriptionModel = defaultTranscriptionModel
	}
	c.OpenAI.TranscriptionMode = strings.ToLower(strings.TrimSpace(c.OpenAI.TranscriptionMode))
	if c.OpenAI.TranscriptionMode == "" {
		c.OpenAI.TranscriptionMode = defaultTranscriptionMode
	}
	if c.OpenAI.TimeoutSeconds == 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeImages() {
	c.Images.Size = strings.ToLower(strings.TrimSpace(c.Images.Size))
	if c.Images.Size == "" {
		c.Images.Size = defaultImageSize
	}
	c.Images.Quality = strings.ToLower(strings.TrimSpace(c.Images.Quality))
	if c.Images.Quality == "" {
		c.Images.Quality = defaultImageQuality
	}
	models := make([]string, 0, len(c.Images.Models))
	seen := make(map[string]struct{}, len(c.Images.Models))
	for _, model := range c.Images.Models {
		normalized := strings.TrimSpace(model)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		models = append(models, normalized)
	}
	if len(models) == 0 {
		models = defaultImageModels()
	}
	c.Images.Models = models
	c.Images.DefaultModel = strings.TrimSpace(c.Images.DefaultModel)
	if c.Images.DefaultModel == "" {
		c.Images.DefaultModel = models[len(models)-1]
	}
}

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (c *Config) normalizeActions() error {
	if value, ok := os.LookupEnv("GPU"); ok && strings.TrimSpace(value) != "" {
		c.Actions.GPUEnabled = true
	}
	c.Actions.UpscalerBinary = defaultIfBlank(c.Actions.UpscalerBinary, defaultUpscalerBinary)
	c.Actions.PngquantBinary = defaultIfBlank(c.Actions.PngquantBinary, defaultPngquantBinary)
	c.Actions.ConvertBinary = defaultIfBlank(c.Actions.ConvertBinary, defaultConvertBinary)
	if c.Actions.UpscaleFactor <= 0 {
		c.Actions.UpscaleFactor = defaultUpscaleFactor
	}
	c.Actions.FeatherMask = strings.TrimSpace(c.Actions.FeatherMask)
	if c.Actions.FeatherMask != "" {
		expanded, err := expandPath(c.Actions.FeatherMask)
		if err != nil {
			return fmt.Errorf("actions.feather_mask: %w", err)
		}
		c.Actions.FeatherMask = expanded
	}
	if len(c.Actions.Colors) == 0 {
		c.Actions.Colors = DefaultColors()
		return nil
	}
	colors := make(map[string]string, len(c.Actions.Colors))
	for name, hex := range c.Actions.Colors {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		colors[name] = strings.ToUpper(strings.TrimSpace(hex))
	}
	c.Actions.Colors = colors
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	if value, ok := os.LookupEnv("DEBUG"); ok && strings.TrimSpace(value) != "" {
		level = "debug"
	}
	c.Logging.Level = level
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultIfBlank(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
