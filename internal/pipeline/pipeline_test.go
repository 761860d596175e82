package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"audiosketch/internal/logging"
	"audiosketch/internal/pipeline"
	"audiosketch/internal/project"
	"audiosketch/internal/services"
	"audiosketch/internal/services/openai"
	"audiosketch/internal/stageexec"
)

type fakeProvider struct {
	transcribeCalls int
	stringsCalls    int
	stringCalls     int
	imageCalls      int
	imagePrompts    []string
	instructions    []string

	prompts    []string
	failImage  int // 1-based image call that fails; 0 disables
	revised    string
	noDownload bool
}

func (f *fakeProvider) Transcribe(_ context.Context, audio openai.Audio) (string, error) {
	f.transcribeCalls++
	return "a long narration about a cat and two dogs", nil
}

func (f *fakeProvider) GenerateStrings(_ context.Context, instruction, attribute string) ([]string, error) {
	f.stringsCalls++
	f.instructions = append(f.instructions, instruction)
	if attribute != "prompts" {
		return nil, errors.New("unexpected attribute " + attribute)
	}
	return f.prompts, nil
}

func (f *fakeProvider) GenerateString(_ context.Context, instruction, attribute string) (string, error) {
	f.stringCalls++
	f.instructions = append(f.instructions, instruction)
	if attribute != "summary" {
		return "", errors.New("unexpected attribute " + attribute)
	}
	return "A cat meets two dogs.", nil
}

func (f *fakeProvider) GenerateImage(_ context.Context, req openai.ImageRequest) (openai.GeneratedImage, error) {
	f.imageCalls++
	if f.failImage > 0 && f.imageCalls == f.failImage {
		return openai.GeneratedImage{}, services.Wrap(services.ErrProvider, "fake", "image", "quota exceeded", nil)
	}
	f.imagePrompts = append(f.imagePrompts, req.Prompt)
	return openai.GeneratedImage{URL: "https://example.invalid/img.png", RevisedPrompt: f.revised}, nil
}

func (f *fakeProvider) Download(_ context.Context, _ openai.GeneratedImage, dst string) error {
	if f.noDownload {
		return nil
	}
	return os.WriteFile(dst, []byte("png"), 0o644)
}

func newFixture(t *testing.T, provider *fakeProvider, fields project.Fields) (*pipeline.Pipeline, *project.Store, project.Project) {
	t.Helper()
	store := project.NewStore(t.TempDir(), logging.NewNop())
	if fields.ImageModel == "" {
		fields.ImageModel = "dall-e-3"
	}
	proj, err := store.Create(fields)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p := pipeline.New(provider, store, pipeline.Options{Logger: logging.NewNop(), ImageSize: "1024x1024", ImageQuality: "standard"})
	return p, store, proj
}

func audio() *openai.Audio {
	return &openai.Audio{Name: "story.mp3", Reader: strings.NewReader("ID3")}
}

func TestRunFullScenario(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat", "Two dogs!"}}
	p, store, proj := newFixture(t, provider, project.Fields{PromptCount: 2})

	got, err := p.Run(context.Background(), proj, audio())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Transcription == "" || got.Summary == "" {
		t.Fatalf("expected transcription and summary, got %+v", got)
	}
	if len(got.Prompts) != 2 || len(got.Images) != 2 {
		t.Fatalf("expected 2 prompts and 2 images, got %d and %d", len(got.Prompts), len(got.Images))
	}
	wantFiles := []string{"001_A-cat.png", "002_Two-dogs.png"}
	for i, img := range got.Images {
		if img.Path != wantFiles[i] {
			t.Fatalf("image %d path = %q, want %q", i, img.Path, wantFiles[i])
		}
		if _, err := os.Stat(filepath.Join(store.Dir(proj.ID), img.Path)); err != nil {
			t.Fatalf("image file missing: %v", err)
		}
	}
	if !got.Complete() {
		t.Fatal("expected project to be complete")
	}

	loaded, err := store.Load(proj.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Images, got.Images) || loaded.Summary != got.Summary {
		t.Fatalf("stored record differs from returned project")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat", "Two dogs!"}}
	p, store, proj := newFixture(t, provider, project.Fields{PromptCount: 2})

	first, err := p.Run(context.Background(), proj, audio())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background(), first, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if provider.transcribeCalls != 1 || provider.stringsCalls != 1 || provider.stringCalls != 1 || provider.imageCalls != 2 {
		t.Fatalf("duplicate provider calls: %+v", provider)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("second run changed the record:\n%+v\n%+v", first, second)
	}
	loaded, err := store.Load(proj.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Images, second.Images) {
		t.Fatalf("stored images differ after second run")
	}
}

func TestGenerateImagesResumesAfterFailure(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"One", "Two", "Three"}, failImage: 2}
	p, store, proj := newFixture(t, provider, project.Fields{PromptCount: 3})

	partial, err := p.Run(context.Background(), proj, audio())
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(partial.Images) != 1 || partial.Images[0].Path != "001_One.png" {
		t.Fatalf("expected first image kept, got %+v", partial.Images)
	}
	stored, err := store.Load(proj.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored.Images) != 1 {
		t.Fatalf("expected partial progress saved, got %d images", len(stored.Images))
	}

	provider.failImage = 0
	provider.imagePrompts = nil
	final, err := p.Run(context.Background(), stored, nil)
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	if len(final.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(final.Images))
	}
	if len(provider.imagePrompts) != 2 {
		t.Fatalf("expected 2 new image requests on resume, got %d", len(provider.imagePrompts))
	}
	if !strings.Contains(provider.imagePrompts[0], `"Two"`) {
		t.Fatalf("resume should start at prompt 2, got %q", provider.imagePrompts[0])
	}
	if len(final.Images) > len(final.Prompts) {
		t.Fatal("images exceed prompts")
	}
}

func TestStagesRequireEarlierOutputs(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat"}}
	p, store, proj := newFixture(t, provider, project.Fields{})
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() (project.Project, error)
	}{
		{"transcribe without audio", func() (project.Project, error) { return p.Transcribe(ctx, proj, nil) }},
		{"derive without transcription", func() (project.Project, error) { return p.DerivePrompts(ctx, proj) }},
		{"summarize without prompts", func() (project.Project, error) { return p.Summarize(ctx, proj) }},
		{"images without summary", func() (project.Project, error) { return p.GenerateImages(ctx, proj) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.run()
			if !errors.Is(err, services.ErrMissingPrecondition) {
				t.Fatalf("expected missing precondition, got %v", err)
			}
			if !reflect.DeepEqual(got, proj) {
				t.Fatalf("project mutated on failure")
			}
		})
	}
	stored, err := store.Load(proj.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.HasTranscription() || stored.HasPrompts() {
		t.Fatal("record written by failing stage")
	}
	if provider.transcribeCalls+provider.stringsCalls+provider.stringCalls+provider.imageCalls != 0 {
		t.Fatal("provider called despite missing precondition")
	}
}

func TestPromptInstructionsAndDecoration(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat"}, revised: "A revised cat"}
	p, _, proj := newFixture(t, provider, project.Fields{PromptCount: 4, Context: "a children's book", Style: "woodcut"})

	got, err := p.Run(context.Background(), proj, audio())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	derive := provider.instructions[0]
	for _, want := range []string{"summarize 4 'prompts'", "dall-e-3 image generation", "Keep in mind a children's book.", "'prompts'", "1000", "a long narration"} {
		if !strings.Contains(derive, want) {
			t.Fatalf("derive instruction missing %q: %s", want, derive)
		}
	}
	summary := provider.instructions[1]
	if !strings.Contains(summary, "A cat") || !strings.Contains(summary, "'summary'") {
		t.Fatalf("unexpected summary instruction: %s", summary)
	}
	image := provider.imagePrompts[0]
	if !strings.Contains(image, `In the style of "woodcut", depict "A cat".`) {
		t.Fatalf("style clause missing: %s", image)
	}
	if strings.Contains(image, "children") || strings.Contains(image, "meets two dogs") {
		t.Fatalf("image prompt leaks context or summary: %s", image)
	}
	if got.Images[0].Prompt != "A revised cat" {
		t.Fatalf("expected revised prompt recorded, got %q", got.Images[0].Prompt)
	}
}

func TestSketchPromptWithoutStyle(t *testing.T) {
	got := pipeline.SketchPrompt("A cat", "")
	want := `I NEED to test how the tool works with extremely simple prompts. DO NOT add any detail, just use it AS-IS: "A cat". This image is for someone who CANNOT read.`
	if got != want {
		t.Fatalf("SketchPrompt = %q, want %q", got, want)
	}
}

func TestImageFileName(t *testing.T) {
	tests := []struct {
		index  int
		prompt string
		want   string
	}{
		{1, "A cat", "001_A-cat.png"},
		{2, "Two dogs!", "002_Two-dogs.png"},
		{12, "Café at 5pm", "012_Cafe-at-pm.png"},
	}
	for _, tc := range tests {
		if got := pipeline.ImageFileName(tc.index, tc.prompt); got != tc.want {
			t.Errorf("ImageFileName(%d, %q) = %q, want %q", tc.index, tc.prompt, got, tc.want)
		}
	}
}

func TestGenerateImagesSkipsWhenWorkingSetFull(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat"}}
	p, store, proj := newFixture(t, provider, project.Fields{})
	proj.Transcription = "text"
	proj.Prompts = []string{"A cat"}
	proj.Summary = "summary"
	if err := os.WriteFile(filepath.Join(store.Dir(proj.ID), "001_A-cat--compressed.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GenerateImages(context.Background(), proj); err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if provider.imageCalls != 0 {
		t.Fatalf("expected no image calls, got %d", provider.imageCalls)
	}
}

func TestObserverSeesEveryStage(t *testing.T) {
	provider := &fakeProvider{prompts: []string{"A cat"}}
	store := project.NewStore(t.TempDir(), logging.NewNop())
	proj, err := store.Create(project.Fields{ImageModel: "dall-e-2"})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	p := pipeline.New(provider, store, pipeline.Options{Observer: func(_ context.Context, o stageexec.Outcome) {
		names = append(names, o.Name)
	}})
	if _, err := p.Run(context.Background(), proj, audio()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(names, pipeline.Stages()) {
		t.Fatalf("observed stages %v, want %v", names, pipeline.Stages())
	}
}
