package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

const (
	// ModeTranslate returns English text whatever the spoken language.
	ModeTranslate = "translate"
	// ModeTranscribe returns text in the spoken language.
	ModeTranscribe = "transcribe"

	defaultTimeout     = 480 * time.Second
	defaultTemperature = 0.7
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey             string
	BaseURL            string
	TextModel          string
	TranscriptionModel string
	TranscriptionMode  string
	Timeout            time.Duration
}

// Client issues provider requests through go-openai.
type Client struct {
	cfg        Config
	api        *sdk.Client
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls and downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a provider client. An empty API key is a
// configuration error.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "openai", "new client", "api key required", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.TextModel) == "" {
		cfg.TextModel = sdk.GPT4o
	}
	if strings.TrimSpace(cfg.TranscriptionModel) == "" {
		cfg.TranscriptionModel = sdk.Whisper1
	}
	if cfg.TranscriptionMode == "" {
		cfg.TranscriptionMode = ModeTranslate
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "openai")

	apiConfig := sdk.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		apiConfig.BaseURL = base
	}
	apiConfig.HTTPClient = client.httpClient
	client.api = sdk.NewClientWithConfig(apiConfig)
	return client, nil
}

// Audio is an uploaded narration. Name is sent as the multipart file name and
// must carry an extension the provider recognizes.
type Audio struct {
	Name   string
	Reader io.Reader
}

// Transcribe converts speech to text using the configured mode.
func (c *Client) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if audio.Reader == nil {
		return "", services.Wrap(services.ErrValidation, "openai", "transcribe", "audio payload required", nil)
	}
	req := sdk.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		FilePath: audio.Name,
		Reader:   audio.Reader,
	}
	started := time.Now()
	var (
		resp sdk.AudioResponse
		err  error
	)
	if c.cfg.TranscriptionMode == ModeTranscribe {
		resp, err = c.api.CreateTranscription(ctx, req)
	} else {
		resp, err = c.api.CreateTranslation(ctx, req)
	}
	observe("transcribe", c.cfg.TranscriptionModel, time.Since(started).Seconds(), err)
	if err != nil {
		return "", providerError("transcribe", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", services.Wrap(services.ErrProvider, "openai", "transcribe", "empty transcription", nil)
	}
	c.logger.Debug("audio transcribed",
		logging.String("mode", c.cfg.TranscriptionMode),
		logging.Int("characters", len(text)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}

// Ping verifies credentials and reachability by listing models.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return providerError("ping", err)
	}
	return nil
}

func providerError(operation string, err error) error {
	var apiErr *sdk.APIError
	var reqErr *sdk.RequestError
	message := "request failed"
	switch {
	case errors.As(err, &apiErr):
		message = fmt.Sprintf("http %d: %s", apiErr.HTTPStatusCode, strings.TrimSpace(apiErr.Message))
	case errors.As(err, &reqErr):
		message = fmt.Sprintf("http %d", reqErr.HTTPStatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		message = "request canceled"
	}
	return services.Wrap(services.ErrProvider, "openai", operation, message, err)
}
