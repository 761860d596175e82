package api

import (
	"path"
	"time"

	"audiosketch/internal/journal"
	"audiosketch/internal/project"
)

type imageView struct {
	Path   string `json:"path"`
	Prompt string `json:"prompt"`
	URL    string `json:"url"`
}

type projectView struct {
	ID               string          `json:"project_id"`
	Name             string          `json:"name"`
	AudioSourceName  string          `json:"audio_file_name,omitempty"`
	PromptCount      int             `json:"prompt_count"`
	Context          string          `json:"context,omitempty"`
	Style            string          `json:"style,omitempty"`
	ImageModel       string          `json:"image_model"`
	Transcription    string          `json:"transcription,omitempty"`
	Prompts          []string        `json:"prompts"`
	Summary          string          `json:"summary,omitempty"`
	Images           []imageView     `json:"images"`
	CompletedActions map[string]bool `json:"completed_actions"`
	Complete         bool            `json:"complete"`
	CreatedAt        time.Time       `json:"created_at,omitzero"`
}

func newProjectView(proj project.Project) projectView {
	images := make([]imageView, 0, len(proj.Images))
	for _, img := range proj.Images {
		images = append(images, imageView{
			Path:   img.Path,
			Prompt: img.Prompt,
			URL:    path.Join("/api/projects", proj.ID, "files", img.Path),
		})
	}
	prompts := proj.Prompts
	if prompts == nil {
		prompts = []string{}
	}
	completed := proj.CompletedActions
	if completed == nil {
		completed = map[string]bool{}
	}
	return projectView{
		ID:               proj.ID,
		Name:             proj.Name(),
		AudioSourceName:  proj.AudioSourceName,
		PromptCount:      proj.PromptCount,
		Context:          proj.Context,
		Style:            proj.Style,
		ImageModel:       proj.ImageModel,
		Transcription:    proj.Transcription,
		Prompts:          prompts,
		Summary:          proj.Summary,
		Images:           images,
		CompletedActions: completed,
		Complete:         proj.Complete(),
		CreatedAt:        proj.CreatedAt,
	}
}

type historyView struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	ErrorClass string    `json:"error_class,omitempty"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

func newHistoryViews(entries []journal.Entry) []historyView {
	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyView{
			ID:         e.ID,
			Kind:       e.Kind,
			Name:       e.Name,
			Status:     string(e.Status),
			ErrorClass: e.ErrorClass,
			Message:    e.Message,
			StartedAt:  e.StartedAt,
			DurationMS: e.Duration.Milliseconds(),
		})
	}
	return out
}
