package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiosketch/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", TextModel: "gpt-4o"}
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeUsesTranslationEndpointByDefault(t *testing.T) {
	var gotPath, gotModel, gotFile string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}
		writeJSON(t, w, map[string]any{"text": "  Our story begins in a town.  "})
	})

	text, err := client.Transcribe(context.Background(), Audio{Name: "tale.mp3", Reader: strings.NewReader("ID3...")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Our story begins in a town." {
		t.Fatalf("unexpected text %q", text)
	}
	if gotPath != "/v1/audio/translations" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotModel != "whisper-1" || gotFile != "tale.mp3" {
		t.Fatalf("unexpected form model=%q file=%q", gotModel, gotFile)
	}
}

func TestTranscribeModeTranscribe(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(t, w, map[string]any{"text": "hola"})
	}, func(c *Config) { c.TranscriptionMode = ModeTranscribe })

	if _, err := client.Transcribe(context.Background(), Audio{Name: "a.mp3", Reader: strings.NewReader("x")}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestGenerateStringsRequestsJSONObject(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeJSON(t, w, chatResponse(`{"prompts":["A cat","Two dogs!"]}`))
	})

	prompts, err := client.GenerateStrings(context.Background(), "make prompts", "prompts")
	if err != nil {
		t.Fatalf("GenerateStrings: %v", err)
	}
	if len(prompts) != 2 || prompts[1] != "Two dogs!" {
		t.Fatalf("unexpected prompts %v", prompts)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", body["response_format"])
	}
	if body["model"] != "gpt-4o" {
		t.Fatalf("unexpected model %v", body["model"])
	}
}

func TestGenerateStringHandlesCodeFence(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, chatResponse("```json\n{\"summary\":\"Two animals meet.\"}\n```"))
	})
	summary, err := client.GenerateString(context.Background(), "summarize", "summary")
	if err != nil {
		t.Fatalf("GenerateString: %v", err)
	}
	if summary != "Two animals meet." {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestGenerateStringsMalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "sorry, I cannot"},
		{"missing attribute", `{"bullet_points":["a"]}`},
		{"wrong type", `{"prompts":"A cat"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, chatResponse(tt.content))
			})
			_, err := client.GenerateStrings(context.Background(), "make prompts", "prompts")
			if !errors.Is(err, services.ErrProvider) {
				t.Fatalf("expected provider error, got %v", err)
			}
		})
	}
}

func TestAPIErrorsAreProviderErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})
	_, err := client.CompleteJSON(context.Background(), "hello")
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in message, got %v", err)
	}
}

func TestGenerateImageAndDownload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	var imageBody map[string]any
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&imageBody)
		writeJSON(t, w, map[string]any{
			"created": 1,
			"data":    []any{map[string]any{"url": server.URL + "/files/img.png", "revised_prompt": "A fluffy cat"}},
		})
	})
	mux.HandleFunc("/files/img.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(png)
	})
	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if client.httpClient != server.Client() {
		t.Fatal("expected the supplied HTTP client to be used")
	}

	img, err := client.GenerateImage(context.Background(), ImageRequest{Model: "dall-e-3", Prompt: "A cat", Size: "1024x1024", Quality: "standard"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.RevisedPrompt != "A fluffy cat" {
		t.Fatalf("unexpected revised prompt %q", img.RevisedPrompt)
	}
	if imageBody["model"] != "dall-e-3" || imageBody["size"] != "1024x1024" || imageBody["quality"] != "standard" {
		t.Fatalf("unexpected image request %v", imageBody)
	}

	dst := filepath.Join(t.TempDir(), "001_A-cat.png")
	if err := client.Download(context.Background(), img, dst); err != nil {
		t.Fatalf("Download: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != string(png) {
		t.Fatalf("unexpected downloaded bytes %q err=%v", got, err)
	}
}

func TestGenerateImageInlineBytes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString([]byte("pixels"))}}})
	})
	img, err := client.GenerateImage(context.Background(), ImageRequest{Model: "dall-e-2", Prompt: "A cat"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "out.png")
	if err := client.Download(context.Background(), img, dst); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "pixels" {
		t.Fatalf("unexpected bytes %q", got)
	}
}

func TestGenerateImageWithoutDataIsProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"created": 1, "data": []any{}})
	})
	_, err := client.GenerateImage(context.Background(), ImageRequest{Model: "dall-e-3", Prompt: "A cat"})
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	client, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	dst := filepath.Join(dir, "001_A-cat.png")
	err = client.Download(context.Background(), GeneratedImage{URL: server.URL + "/missing.png"}, dst)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files after failed download, got %d", len(entries))
	}
}

func TestDecodeJSONFallbacks(t *testing.T) {
	var out map[string]string
	if err := DecodeJSON("Here you go: {\"summary\":\"ok\"} thanks", &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out["summary"] != "ok" {
		t.Fatalf("unexpected decode %v", out)
	}
	if err := DecodeJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
