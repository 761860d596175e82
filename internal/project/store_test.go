package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "projects"), logging.NewNop())
}

func TestCreateWritesRecordWithDefaults(t *testing.T) {
	store := newTestStore(t)
	proj, err := store.Create(Fields{AudioSourceName: "/tmp/uploads/story time.mp3", ImageModel: "dall-e-3"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !ValidID(proj.ID) {
		t.Fatalf("unexpected id %q", proj.ID)
	}
	if proj.PromptCount != 1 {
		t.Fatalf("expected default prompt count 1, got %d", proj.PromptCount)
	}
	if proj.AudioSourceName != "story time.mp3" {
		t.Fatalf("expected base name, got %q", proj.AudioSourceName)
	}
	if proj.Context != "" || proj.Style != "" {
		t.Fatalf("expected absent context/style, got %q %q", proj.Context, proj.Style)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(proj.ID), RecordFileName)); err != nil {
		t.Fatalf("expected record on disk: %v", err)
	}
	loaded, err := store.Load(proj.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, proj) {
		t.Fatalf("loaded record differs:\n got %+v\nwant %+v", loaded, proj)
	}
}

func TestCreateValidatesFields(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Create(Fields{PromptCount: -2, ImageModel: "dall-e-2"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative count, got %v", err)
	}
	if _, err := store.Create(Fields{PromptCount: 2}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing model, got %v", err)
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.Dir("aaaaaaa"), 0o755); err != nil {
		t.Fatal(err)
	}
	ids := []string{"aaaaaaa", "aaaaaaa", "bbbbbbb"}
	store.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	proj, err := store.Create(Fields{ImageModel: "dall-e-2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if proj.ID != "bbbbbbb" {
		t.Fatalf("expected collision retry to pick bbbbbbb, got %q", proj.ID)
	}
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.Dir("ccccccc"), 0o755); err != nil {
		t.Fatal(err)
	}
	store.newID = func() (string, error) { return "ccccccc", nil }
	if _, err := store.Create(Fields{ImageModel: "dall-e-2"}); err == nil {
		t.Fatal("expected error when every id collides")
	}
}

func TestLoadErrors(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("zzzzzzz"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Load("../etc"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for invalid id, got %v", err)
	}

	if err := os.MkdirAll(store.Dir("broken1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir("broken1"), RecordFileName), []byte("images: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("broken1"); !errors.Is(err, services.ErrCorruptState) {
		t.Fatalf("expected corrupt state, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	created := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	cases := []Project{
		{ID: "abc1234", PromptCount: 1, ImageModel: "dall-e-2"},
		{ID: "abc1235", AudioSourceName: "tale.mp3", PromptCount: 2, Context: "fantasy", Style: "ink", ImageModel: "dall-e-3", Transcription: "Once upon a time", CreatedAt: created},
		{
			ID:              "abc1236",
			AudioSourceName: "tale.mp3",
			PromptCount:     2,
			ImageModel:      "dall-e-3",
			Transcription:   "text",
			Prompts:         []string{"A cat", "Two dogs!"},
			Summary:         "Animals.",
			Images:          []Image{{Path: "001_A-cat.png", Prompt: "A revised cat"}},
			CompletedActions: map[string]bool{
				"compress": true,
			},
			CreatedAt: created,
		},
		{
			ID:               "abc1237",
			PromptCount:      1,
			ImageModel:       "dall-e-2",
			Prompts:          []string{},
			Images:           []Image{},
			CompletedActions: map[string]bool{},
		},
	}
	for _, saved := range cases {
		if err := store.Save(saved); err != nil {
			t.Fatalf("Save(%s): %v", saved.ID, err)
		}
		got, err := store.Load(saved.ID)
		if err != nil {
			t.Fatalf("Load(%s): %v", saved.ID, err)
		}
		want := saved.Normalize()
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch for %s:\n got %+v\nwant %+v", want.ID, got, want)
		}
	}
}

func TestNormalizeEmptyCollections(t *testing.T) {
	got := Project{ID: "abc1234", Prompts: []string{}, Images: []Image{}, CompletedActions: map[string]bool{}}.Normalize()
	if got.Prompts != nil || got.Images != nil || got.CompletedActions != nil {
		t.Fatalf("empty collections not normalized: %+v", got)
	}
	kept := Project{ID: "abc1234", Prompts: []string{"A cat"}, CompletedActions: map[string]bool{"red": true}}.Normalize()
	if len(kept.Prompts) != 1 || !kept.CompletedActions["red"] {
		t.Fatalf("non-empty collections dropped: %+v", kept)
	}
}

func TestFindOrCreate(t *testing.T) {
	store := newTestStore(t)
	first, created, err := store.FindOrCreate(Fields{AudioSourceName: "a.mp3", PromptCount: 3, ImageModel: "dall-e-3"})
	if err != nil || !created {
		t.Fatalf("expected creation, created=%v err=%v", created, err)
	}
	again, created, err := store.FindOrCreate(Fields{ProjectID: first.ID, PromptCount: 9, ImageModel: "dall-e-2"})
	if err != nil || created {
		t.Fatalf("expected existing project, created=%v err=%v", created, err)
	}
	if again.PromptCount != 3 || again.ImageModel != "dall-e-3" {
		t.Fatalf("existing project must keep immutable fields, got %+v", again)
	}
	fresh, created, err := store.FindOrCreate(Fields{ProjectID: "nothere", ImageModel: "dall-e-2"})
	if err != nil || !created || fresh.ID == "nothere" {
		t.Fatalf("unknown id should create a new project, got %+v created=%v err=%v", fresh, created, err)
	}
}

func TestWorkingSetListsOnlyRootPNGs(t *testing.T) {
	store := newTestStore(t)
	proj, err := store.Create(Fields{ImageModel: "dall-e-2"})
	if err != nil {
		t.Fatal(err)
	}
	dir := store.Dir(proj.ID)
	for _, name := range []string{"002_b.png", "001_a.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stash, err := store.EnsureStashDir(proj.ID, "red")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stash, "001_a.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := store.WorkingSet(proj.ID)
	if err != nil {
		t.Fatalf("WorkingSet: %v", err)
	}
	want := []string{filepath.Join(dir, "001_a.png"), filepath.Join(dir, "002_b.png")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected working set %v", got)
	}
}
