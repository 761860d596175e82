package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
	"audiosketch/internal/stageexec"
)

// Status is the terminal state of one run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Entry is one journal row.
type Entry struct {
	ID         string
	ProjectID  string
	Kind       string
	Name       string
	Status     Status
	ErrorClass string
	Message    string
	StartedAt  time.Time
	Duration   time.Duration
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal database and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", "journal path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry, assigning an id when missing.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_id, kind, name, status, error_class, message, started_at, duration_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ProjectID,
		entry.Kind,
		entry.Name,
		string(entry.Status),
		nullableString(entry.ErrorClass),
		nullableString(entry.Message),
		entry.StartedAt.UTC().Format(time.RFC3339Nano),
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return entry, fmt.Errorf("insert run: %w", err)
	}
	return entry, nil
}

// History returns a project's runs, newest first. limit <= 0 means all.
func (s *Store) History(ctx context.Context, projectID string, limit int) ([]Entry, error) {
	query := `SELECT id, project_id, kind, name, status, error_class, message, started_at, duration_ms
        FROM runs WHERE project_id = ? ORDER BY started_at DESC, rowid DESC`
	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			status     string
			errorClass sql.NullString
			message    sql.NullString
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.Kind, &entry.Name, &status, &errorClass, &message, &startedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		entry.Status = Status(status)
		entry.ErrorClass = errorClass.String
		entry.Message = message.String
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			entry.StartedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// Prune removes entries that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Observer returns a stage observer that appends every outcome. Write
// failures are logged and never fail the run being observed.
func (s *Store) Observer(logger *slog.Logger) stageexec.Observer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(ctx context.Context, outcome stageexec.Outcome) {
		entry := EntryFromOutcome(outcome)
		if _, err := s.Record(context.WithoutCancel(ctx), entry); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "journal write failed", "journal_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history incomplete"),
			)
		}
	}
}

// EntryFromOutcome converts a step outcome into a journal entry.
func EntryFromOutcome(outcome stageexec.Outcome) Entry {
	entry := Entry{
		ProjectID: outcome.ProjectID,
		Kind:      string(outcome.Kind),
		Name:      outcome.Name,
		Status:    StatusCompleted,
		StartedAt: outcome.Started,
		Duration:  outcome.Duration,
	}
	switch {
	case outcome.Err != nil:
		entry.Status = StatusFailed
		entry.ErrorClass = services.Classify(outcome.Err)
		entry.Message = outcome.Err.Error()
	case outcome.Skipped:
		entry.Status = StatusSkipped
	}
	return entry
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
