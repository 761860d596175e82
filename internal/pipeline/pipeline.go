package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"audiosketch/internal/logging"
	"audiosketch/internal/project"
	"audiosketch/internal/services"
	"audiosketch/internal/services/openai"
	"audiosketch/internal/stageexec"
	"audiosketch/internal/textutil"
)

// Stage names, in execution order.
const (
	StageTranscribe     = "transcribe"
	StageDerivePrompts  = "derive_prompts"
	StageSummarize      = "summarize"
	StageGenerateImages = "generate_images"
)

// Stages lists the stage names in execution order.
func Stages() []string {
	return []string{StageTranscribe, StageDerivePrompts, StageSummarize, StageGenerateImages}
}

// Provider is the set of generation services the pipeline consumes.
type Provider interface {
	Transcribe(ctx context.Context, audio openai.Audio) (string, error)
	GenerateStrings(ctx context.Context, instruction, attribute string) ([]string, error)
	GenerateString(ctx context.Context, instruction, attribute string) (string, error)
	GenerateImage(ctx context.Context, req openai.ImageRequest) (openai.GeneratedImage, error)
	Download(ctx context.Context, img openai.GeneratedImage, dst string) error
}

// Store persists project records and locates their working directories.
type Store interface {
	Save(project.Project) error
	Dir(id string) string
	WorkingSet(id string) ([]string, error)
}

// Options configures a Pipeline.
type Options struct {
	Logger       *slog.Logger
	ImageSize    string
	ImageQuality string
	Observer     stageexec.Observer
}

// Pipeline runs the generation stages against one provider and store.
type Pipeline struct {
	provider Provider
	store    Store
	logger   *slog.Logger
	size     string
	quality  string
	observer stageexec.Observer
}

// New constructs a pipeline.
func New(provider Provider, store Store, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		provider: provider,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		size:     opts.ImageSize,
		quality:  opts.ImageQuality,
		observer: opts.Observer,
	}
}

// Run executes every stage in order and stops at the first error. The
// returned project reflects everything saved so far, including partial image
// progress.
func (p *Pipeline) Run(ctx context.Context, proj project.Project, audio *openai.Audio) (project.Project, error) {
	steps := []struct {
		name string
		fn   func(context.Context, project.Project) (project.Project, bool, error)
	}{
		{StageTranscribe, func(ctx context.Context, in project.Project) (project.Project, bool, error) {
			return p.transcribe(ctx, in, audio)
		}},
		{StageDerivePrompts, p.derivePrompts},
		{StageSummarize, p.summarize},
		{StageGenerateImages, p.generateImages},
	}
	current := proj
	for _, step := range steps {
		next, err := p.runStage(ctx, step.name, current, step.fn)
		current = next
		if err != nil {
			return current, err
		}
	}
	return current, nil
}

// Transcribe sets the transcription from audio unless one is already stored.
func (p *Pipeline) Transcribe(ctx context.Context, proj project.Project, audio *openai.Audio) (project.Project, error) {
	return p.runStage(ctx, StageTranscribe, proj, func(ctx context.Context, in project.Project) (project.Project, bool, error) {
		return p.transcribe(ctx, in, audio)
	})
}

// DerivePrompts asks the text model for prompt_count illustration prompts.
func (p *Pipeline) DerivePrompts(ctx context.Context, proj project.Project) (project.Project, error) {
	return p.runStage(ctx, StageDerivePrompts, proj, p.derivePrompts)
}

// Summarize condenses the prompts into a single paragraph.
func (p *Pipeline) Summarize(ctx context.Context, proj project.Project) (project.Project, error) {
	return p.runStage(ctx, StageSummarize, proj, p.summarize)
}

// GenerateImages produces one image per prompt that does not have one yet.
func (p *Pipeline) GenerateImages(ctx context.Context, proj project.Project) (project.Project, error) {
	return p.runStage(ctx, StageGenerateImages, proj, p.generateImages)
}

type stageFunc func(context.Context, project.Project) (project.Project, bool, error)

func (p *Pipeline) runStage(ctx context.Context, name string, proj project.Project, fn stageFunc) (project.Project, error) {
	result := proj
	err := stageexec.Run(ctx, stageexec.Options{
		Logger:    p.logger,
		Kind:      stageexec.KindStage,
		Name:      name,
		ProjectID: proj.ID,
		Observer:  p.observer,
	}, func(ctx context.Context) (bool, error) {
		next, skipped, err := fn(ctx, proj)
		result = next
		return skipped, err
	})
	return result, err
}

func (p *Pipeline) transcribe(ctx context.Context, proj project.Project, audio *openai.Audio) (project.Project, bool, error) {
	if proj.HasTranscription() {
		return proj, true, nil
	}
	if audio == nil || audio.Reader == nil {
		return proj, false, precondition(StageTranscribe, "audio payload required")
	}
	text, err := p.provider.Transcribe(ctx, *audio)
	if err != nil {
		return proj, false, err
	}
	next := proj.Clone()
	next.Transcription = text
	if strings.TrimSpace(next.AudioSourceName) == "" {
		next.AudioSourceName = audio.Name
	}
	return p.save(proj, next)
}

func (p *Pipeline) derivePrompts(ctx context.Context, proj project.Project) (project.Project, bool, error) {
	if proj.HasPrompts() {
		return proj, true, nil
	}
	if !proj.HasTranscription() {
		return proj, false, precondition(StageDerivePrompts, "transcription required")
	}
	count := proj.PromptCount
	if count <= 0 {
		count = 1
	}
	instruction := deriveInstruction(proj.Transcription, count, proj.ImageModel, proj.Context)
	prompts, err := p.provider.GenerateStrings(ctx, instruction, promptsAttribute)
	if err != nil {
		return proj, false, err
	}
	cleaned := make([]string, 0, len(prompts))
	for _, prompt := range prompts {
		if trimmed := strings.TrimSpace(prompt); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return proj, false, services.Wrap(services.ErrProvider, "pipeline", StageDerivePrompts, "provider returned no prompts", nil)
	}
	next := proj.Clone()
	next.Prompts = cleaned
	return p.save(proj, next)
}

func (p *Pipeline) summarize(ctx context.Context, proj project.Project) (project.Project, bool, error) {
	if proj.HasSummary() {
		return proj, true, nil
	}
	if !proj.HasPrompts() {
		return proj, false, precondition(StageSummarize, "prompts required")
	}
	summary, err := p.provider.GenerateString(ctx, summaryInstruction(proj.Prompts, proj.Context), summaryAttribute)
	if err != nil {
		return proj, false, err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return proj, false, services.Wrap(services.ErrProvider, "pipeline", StageSummarize, "provider returned an empty summary", nil)
	}
	next := proj.Clone()
	next.Summary = summary
	return p.save(proj, next)
}

func (p *Pipeline) generateImages(ctx context.Context, proj project.Project) (project.Project, bool, error) {
	if !proj.HasPrompts() || !proj.HasSummary() {
		return proj, false, precondition(StageGenerateImages, "prompts and summary required")
	}
	if proj.ImagesComplete() {
		return proj, true, nil
	}
	working, err := p.store.WorkingSet(proj.ID)
	if err != nil {
		return proj, false, fmt.Errorf("list working set: %w", err)
	}
	if len(working) >= len(proj.Prompts) {
		return proj, true, nil
	}

	logger := logging.WithContext(ctx, p.logger)
	current := proj
	generated := 0
	for i, prompt := range proj.Prompts {
		name := ImageFileName(i+1, prompt)
		if current.HasImage(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return current, false, err
		}
		decorated := SketchPrompt(prompt, proj.Style)
		img, err := p.provider.GenerateImage(ctx, openai.ImageRequest{
			Model:   proj.ImageModel,
			Prompt:  decorated,
			Size:    p.size,
			Quality: p.quality,
		})
		if err != nil {
			return current, false, err
		}
		if err := p.provider.Download(ctx, img, filepath.Join(p.store.Dir(proj.ID), name)); err != nil {
			return current, false, err
		}
		recorded := decorated
		if img.RevisedPrompt != "" {
			recorded = img.RevisedPrompt
		}
		next := current.Clone()
		next.Images = append(next.Images, project.Image{Path: name, Prompt: recorded})
		if err := p.store.Save(next); err != nil {
			return current, false, fmt.Errorf("save image %s: %w", name, err)
		}
		current = next
		generated++
		logger.Info("image generated",
			logging.String("file", name),
			logging.Int("index", i+1),
			logging.Int("total", len(proj.Prompts)),
			logging.Bool("revised_prompt", img.RevisedPrompt != ""),
		)
	}
	return current, generated == 0, nil
}

func (p *Pipeline) save(before, after project.Project) (project.Project, bool, error) {
	if err := p.store.Save(after); err != nil {
		return before, false, fmt.Errorf("save project: %w", err)
	}
	return after, false, nil
}

// ImageFileName returns the deterministic file name for the 1-based prompt
// index, e.g. "001_A-cat.png".
func ImageFileName(index int, prompt string) string {
	return textutil.IndexedFileName(index, prompt, project.ImageExt)
}

func precondition(stage, message string) error {
	return services.Wrap(services.ErrMissingPrecondition, "pipeline", stage, message, nil)
}
