package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"audiosketch/internal/logging"
)

// Summary is a read-only view of one stored project.
type Summary struct {
	ID               string    `json:"project_id"`
	Name             string    `json:"name"`
	ImageModel       string    `json:"image_model"`
	Prompts          int       `json:"prompts"`
	Images           int       `json:"images"`
	Complete         bool      `json:"complete"`
	CompletedActions []string  `json:"completed_actions"`
	CreatedAt        time.Time `json:"created_at,omitzero"`
}

// Summarize derives the listing view of proj.
func Summarize(proj Project) Summary {
	actions := make([]string, 0, len(proj.CompletedActions))
	for name, done := range proj.CompletedActions {
		if done {
			actions = append(actions, name)
		}
	}
	sort.Strings(actions)
	return Summary{
		ID:               proj.ID,
		Name:             proj.Name(),
		ImageModel:       proj.ImageModel,
		Prompts:          len(proj.Prompts),
		Images:           len(proj.Images),
		Complete:         proj.Complete(),
		CompletedActions: actions,
		CreatedAt:        proj.CreatedAt,
	}
}

// List returns summaries of every readable project ordered by id. Unreadable
// records are logged and skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects dir: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !s.Exists(entry.Name()) {
			continue
		}
		proj, err := s.Load(entry.Name())
		if err != nil {
			logging.WarnWithContext(s.logger, "project record unreadable; skipped from listing", "project_list_skip",
				logging.String(logging.FieldProjectID, entry.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect or remove the project's cache.yml"),
				logging.String(logging.FieldImpact, "project hidden from listings"),
			)
			continue
		}
		summaries = append(summaries, Summarize(proj))
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}
