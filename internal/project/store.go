package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"audiosketch/internal/fileutil"
	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

const (
	// RecordFileName is the per-project state record.
	RecordFileName = "cache.yml"
	// StashDirName holds pre-action backups inside a project directory.
	StashDirName = "stash"
	// ImageExt is the extension of every working image.
	ImageExt = ".png"

	maxCreateAttempts  = 8
	defaultPromptCount = 1
)

// Fields carries the user-supplied values for a new project.
type Fields struct {
	ProjectID       string
	AudioSourceName string
	PromptCount     int
	Context         string
	Style           string
	ImageModel      string
}

// Store reads and writes project records below a root directory.
type Store struct {
	root   string
	logger *slog.Logger
	newID  func() (string, error)
	now    func() time.Time
}

// NewStore constructs a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logging.NewComponentLogger(logger, "project-store"),
		newID:  NewID,
		now:    time.Now,
	}
}

// Root returns the projects directory.
func (s *Store) Root() string { return s.root }

// Dir returns the directory holding the project's record and images.
func (s *Store) Dir(id string) string { return filepath.Join(s.root, id) }

// StashDir returns the project's backup directory.
func (s *Store) StashDir(id string) string { return filepath.Join(s.root, id, StashDirName) }

func (s *Store) recordPath(id string) string { return filepath.Join(s.root, id, RecordFileName) }

// Exists reports whether a record is stored for id.
func (s *Store) Exists(id string) bool {
	if !ValidID(id) {
		return false
	}
	info, err := os.Stat(s.recordPath(id))
	return err == nil && !info.IsDir()
}

// Create allocates a fresh id, creates its directory exclusively, and writes
// the initial record. An existing directory counts as an id collision.
func (s *Store) Create(fields Fields) (Project, error) {
	fields = normalizeFields(fields)
	if err := validateFields(fields); err != nil {
		return Project{}, err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return Project{}, services.Wrap(services.ErrConfiguration, "project", "create", "ensure projects dir", err)
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return Project{}, err
		}
		if err := os.Mkdir(s.Dir(id), 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				s.logger.Debug("project id collision", logging.String(logging.FieldProjectID, id), logging.Int("attempt", attempt))
				continue
			}
			return Project{}, fmt.Errorf("create project dir: %w", err)
		}
		proj := Project{
			ID:              id,
			AudioSourceName: fields.AudioSourceName,
			PromptCount:     fields.PromptCount,
			Context:         fields.Context,
			Style:           fields.Style,
			ImageModel:      fields.ImageModel,
			CreatedAt:       s.now().UTC().Truncate(time.Second),
		}
		if err := s.Save(proj); err != nil {
			return Project{}, err
		}
		s.logger.Info("project created",
			logging.String(logging.FieldProjectID, id),
			logging.String("image_model", proj.ImageModel),
			logging.Int("prompt_count", proj.PromptCount),
			logging.String(logging.FieldEventType, "project_created"),
		)
		return proj, nil
	}
	return Project{}, fmt.Errorf("create project: no free id after %d attempts", maxCreateAttempts)
}

// Load reads the record for id.
func (s *Store) Load(id string) (Project, error) {
	if !ValidID(id) {
		return Project{}, services.Wrap(services.ErrNotFound, "project", "load", fmt.Sprintf("invalid project id %q", id), nil)
	}
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Project{}, services.Wrap(services.ErrNotFound, "project", "load", id, nil)
		}
		return Project{}, fmt.Errorf("read project record: %w", err)
	}
	var proj Project
	if err := yaml.Unmarshal(data, &proj); err != nil {
		return Project{}, services.Wrap(services.ErrCorruptState, "project", "load", id, err)
	}
	if proj.ID != id {
		return Project{}, services.Wrap(services.ErrCorruptState, "project", "load",
			fmt.Sprintf("record id %q does not match directory %q", proj.ID, id), nil)
	}
	return proj, nil
}

// Save overwrites the project's record atomically.
func (s *Store) Save(proj Project) error {
	if !ValidID(proj.ID) {
		return services.Wrap(services.ErrValidation, "project", "save", fmt.Sprintf("invalid project id %q", proj.ID), nil)
	}
	data, err := yaml.Marshal(proj.Normalize())
	if err != nil {
		return fmt.Errorf("encode project record: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.recordPath(proj.ID), data, 0o644); err != nil {
		return fmt.Errorf("save project %s: %w", proj.ID, err)
	}
	return nil
}

// FindOrCreate loads the project named by fields.ProjectID when it has a
// record; otherwise it creates a new project from the remaining fields.
func (s *Store) FindOrCreate(fields Fields) (Project, bool, error) {
	id := strings.TrimSpace(fields.ProjectID)
	if id != "" && s.Exists(id) {
		proj, err := s.Load(id)
		return proj, false, err
	}
	proj, err := s.Create(fields)
	return proj, err == nil, err
}

// EnsureStashDir creates the stash directory, plus an optional subdirectory.
func (s *Store) EnsureStashDir(id string, subdir ...string) (string, error) {
	dir := filepath.Join(append([]string{s.StashDir(id)}, subdir...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stash dir: %w", err)
	}
	return dir, nil
}

// WorkingSet returns the sorted absolute paths of the project's working images.
func (s *Store) WorkingSet(id string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(id))
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ImageExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.Dir(id), entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func normalizeFields(fields Fields) Fields {
	fields.ProjectID = strings.TrimSpace(fields.ProjectID)
	fields.AudioSourceName = strings.TrimSpace(filepath.Base(fields.AudioSourceName))
	if fields.AudioSourceName == "." || fields.AudioSourceName == string(filepath.Separator) {
		fields.AudioSourceName = ""
	}
	fields.Context = strings.TrimSpace(fields.Context)
	fields.Style = strings.TrimSpace(fields.Style)
	fields.ImageModel = strings.TrimSpace(fields.ImageModel)
	if fields.PromptCount == 0 {
		fields.PromptCount = defaultPromptCount
	}
	return fields
}

func validateFields(fields Fields) error {
	if fields.PromptCount < 1 {
		return services.Wrap(services.ErrValidation, "project", "create", "prompt_count must be positive", nil)
	}
	if fields.ImageModel == "" {
		return services.Wrap(services.ErrValidation, "project", "create", "image_model is required", nil)
	}
	return nil
}
