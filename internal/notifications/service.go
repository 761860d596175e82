package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"audiosketch/internal/config"
)

const userAgent = "audiosketch/0.1.0"

// Service defines the notification surface used by the workflow manager.
type Service interface {
	NotifyPipelineCompleted(ctx context.Context, projectID, name string, images int) error
	NotifyActionApplied(ctx context.Context, projectID, action string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: cfg.NotificationTimeout()},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPipelineCompleted(ctx context.Context, projectID, name string, images int) error {
	label := strings.TrimSpace(name)
	if label == "" {
		label = projectID
	}
	noun := "images"
	if images == 1 {
		noun = "image"
	}
	return n.send(ctx, payload{
		title:   "audiosketch - Illustrations Ready",
		message: fmt.Sprintf("%s: %d %s generated (project %s)", label, images, noun, projectID),
		tags:    []string{"audiosketch", "pipeline", "completed"},
	})
}

func (n *ntfyService) NotifyActionApplied(ctx context.Context, projectID, action string) error {
	return n.send(ctx, payload{
		title:    "audiosketch - Action Applied",
		message:  fmt.Sprintf("%s applied to project %s", strings.TrimSpace(action), projectID),
		tags:     []string{"audiosketch", "action", strings.TrimSpace(action)},
		priority: "low",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "audiosketch - Error",
		message:  builder.String(),
		tags:     []string{"audiosketch", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPipelineCompleted(context.Context, string, string, int) error { return nil }
func (noopService) NotifyActionApplied(context.Context, string, string) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
