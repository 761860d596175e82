package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"audiosketch/internal/config"
	"audiosketch/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyPipelineCompleted(context.Background(), "abc", "story", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).NotifyError(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "pipeline completed",
			send: func(s notifications.Service) error {
				return s.NotifyPipelineCompleted(context.Background(), "abc123", "fox-tale", 4)
			},
			expectTitle:   "audiosketch - Illustrations Ready",
			expectMessage: "fox-tale: 4 images generated (project abc123)",
			expectTags:    "audiosketch,pipeline,completed",
		},
		{
			name: "pipeline completed single image without name",
			send: func(s notifications.Service) error {
				return s.NotifyPipelineCompleted(context.Background(), "abc123", "", 1)
			},
			expectTitle:   "audiosketch - Illustrations Ready",
			expectMessage: "abc123: 1 image generated (project abc123)",
			expectTags:    "audiosketch,pipeline,completed",
		},
		{
			name: "action applied",
			send: func(s notifications.Service) error {
				return s.NotifyActionApplied(context.Background(), "abc123", "compress")
			},
			expectTitle:    "audiosketch - Action Applied",
			expectMessage:  "compress applied to project abc123",
			expectTags:     "audiosketch,action,compress",
			expectPriority: "low",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("provider unavailable"), "generate_images")
			},
			expectTitle:    "audiosketch - Error",
			expectMessage:  "Error with generate_images: provider unavailable",
			expectTags:     "audiosketch,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	err := notifications.NewService(&cfg).NotifyActionApplied(context.Background(), "abc", "compress")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}
