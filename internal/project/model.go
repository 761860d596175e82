package project

import (
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"audiosketch/internal/textutil"
)

// Image records one generated illustration. Path is relative to the project
// directory.
type Image struct {
	Path   string `yaml:"path"`
	Prompt string `yaml:"prompt"`
}

// Project is the persisted state of one narration-to-illustrations request.
// Empty strings and nil slices mean "not produced yet". Empty collections are
// stored as absent and load back as nil; see Normalize.
type Project struct {
	ID               string          `yaml:"project_id"`
	AudioSourceName  string          `yaml:"audio_file_name,omitempty"`
	PromptCount      int             `yaml:"prompt_count"`
	Context          string          `yaml:"context,omitempty"`
	Style            string          `yaml:"style,omitempty"`
	ImageModel       string          `yaml:"image_model"`
	Transcription    string          `yaml:"transcription,omitempty"`
	Prompts          []string        `yaml:"prompts,omitempty"`
	Summary          string          `yaml:"summary,omitempty"`
	Images           []Image         `yaml:"images,omitempty"`
	CompletedActions map[string]bool `yaml:"completed_actions,omitempty"`
	CreatedAt        time.Time       `yaml:"created_at,omitempty"`
}

// Clone returns a deep copy so stage functions can return a modified value
// without aliasing the caller's slices and maps.
func (p Project) Clone() Project {
	out := p
	out.Prompts = slices.Clone(p.Prompts)
	out.Images = slices.Clone(p.Images)
	out.CompletedActions = maps.Clone(p.CompletedActions)
	return out
}

// Normalize returns a copy with empty Prompts, Images and CompletedActions set
// to nil, the form a record has after a save and load.
func (p Project) Normalize() Project {
	if len(p.Prompts) == 0 {
		p.Prompts = nil
	}
	if len(p.Images) == 0 {
		p.Images = nil
	}
	if len(p.CompletedActions) == 0 {
		p.CompletedActions = nil
	}
	return p
}

// HasTranscription reports whether the transcribe stage has completed.
func (p Project) HasTranscription() bool { return p.Transcription != "" }

// HasPrompts reports whether the derive-prompts stage has completed.
func (p Project) HasPrompts() bool { return len(p.Prompts) > 0 }

// HasSummary reports whether the summarize stage has completed.
func (p Project) HasSummary() bool { return p.Summary != "" }

// HasImage reports whether an image with the given relative path is recorded.
func (p Project) HasImage(path string) bool {
	return slices.ContainsFunc(p.Images, func(img Image) bool { return img.Path == path })
}

// ImagesComplete reports whether every prompt has a recorded image.
func (p Project) ImagesComplete() bool {
	return p.HasPrompts() && len(p.Images) >= len(p.Prompts)
}

// Complete reports whether every pipeline stage has produced its output.
func (p Project) Complete() bool {
	if p.ID == "" || p.AudioSourceName == "" || p.ImageModel == "" {
		return false
	}
	return p.HasTranscription() && p.HasSummary() && p.ImagesComplete()
}

// ActionCompleted reports whether the named action has been applied.
func (p Project) ActionCompleted(name string) bool {
	return p.CompletedActions[name]
}

// MarkActionCompleted returns a copy with the named action flagged.
func (p Project) MarkActionCompleted(name string) Project {
	out := p.Clone()
	if out.CompletedActions == nil {
		out.CompletedActions = make(map[string]bool)
	}
	out.CompletedActions[name] = true
	return out
}

var (
	audioNameStrip   = regexp.MustCompile(`[^0-9A-Za-z.\-]`)
	contextNameStrip = regexp.MustCompile(`[^0-9A-Za-z\-]`)
)

// nameLimit bounds the display name length.
const nameLimit = 61

// Name renders the display label "id -> audio (context)".
func (p Project) Name() string {
	audio := audioNameStrip.ReplaceAllString(strings.ReplaceAll(p.AudioSourceName, " ", "-"), "")
	label := p.ID + " -> " + audio
	if p.Context != "" {
		context := contextNameStrip.ReplaceAllString(strings.ReplaceAll(p.Context, " ", "-"), "")
		label += " (" + context + ")"
	}
	return textutil.Truncate(label, nameLimit)
}
