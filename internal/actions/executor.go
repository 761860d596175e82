package actions

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"audiosketch/internal/fileutil"
	"audiosketch/internal/logging"
	"audiosketch/internal/project"
	"audiosketch/internal/services"
	"audiosketch/internal/stageexec"
)

// Store is the subset of the project store the executor needs.
type Store interface {
	Save(project.Project) error
	WorkingSet(id string) ([]string, error)
	EnsureStashDir(id string, subdir ...string) (string, error)
}

// Options configures an Executor.
type Options struct {
	Logger   *slog.Logger
	Observer stageexec.Observer
}

// Executor applies registered actions to a project's working set.
type Executor struct {
	registry *Registry
	store    Store
	logger   *slog.Logger
	observer stageexec.Observer
}

// NewExecutor constructs an executor over registry and store.
func NewExecutor(registry *Registry, store Store, opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		registry: registry,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "actions"),
		observer: opts.Observer,
	}
}

// Registry exposes the executor's action registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Run stashes the working set, enforces the action's predecessor, transforms
// every file lacking the action's marker and records completion. On failure
// the returned project is proj unchanged.
func (e *Executor) Run(ctx context.Context, name string, proj project.Project) (project.Project, error) {
	action, err := e.registry.Lookup(name)
	if err != nil {
		return proj, err
	}
	result := proj
	err = stageexec.Run(ctx, stageexec.Options{
		Logger:    e.logger,
		Kind:      stageexec.KindAction,
		Name:      name,
		ProjectID: proj.ID,
		Observer:  e.observer,
	}, func(ctx context.Context) (bool, error) {
		next, transformed, err := e.apply(ctx, action, proj)
		if err != nil {
			return false, err
		}
		result = next
		return transformed == 0 && proj.ActionCompleted(name), nil
	})
	return result, err
}

func (e *Executor) apply(ctx context.Context, action Action, proj project.Project) (project.Project, int, error) {
	working, err := e.store.WorkingSet(proj.ID)
	if err != nil {
		return proj, 0, err
	}
	if err := e.stash(proj.ID, working); err != nil {
		return proj, 0, err
	}
	if err := e.checkPredecessor(action, proj, working); err != nil {
		return proj, 0, err
	}

	var exportDir string
	if action.Mode() == ModeExport {
		if exportDir, err = e.store.EnsureStashDir(proj.ID, action.Name()); err != nil {
			return proj, 0, err
		}
	}

	logger := logging.WithContext(ctx, e.logger)
	transformed := 0
	for _, input := range working {
		if HasMarker(filepath.Base(input), action.Marker()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return proj, transformed, err
		}
		output := filepath.Join(filepath.Dir(input), MarkedName(filepath.Base(input), action.Marker()))
		if err := action.Apply(ctx, input, output); err != nil {
			// A partial output would otherwise join the working set.
			_ = os.Remove(output)
			return proj, transformed, err
		}
		switch action.Mode() {
		case ModeExport:
			if err := fileutil.MoveFile(output, filepath.Join(exportDir, filepath.Base(output))); err != nil {
				return proj, transformed, fmt.Errorf("export %s: %w", filepath.Base(output), err)
			}
		default:
			if err := os.Remove(input); err != nil && !os.IsNotExist(err) {
				return proj, transformed, fmt.Errorf("remove %s: %w", filepath.Base(input), err)
			}
		}
		transformed++
		logger.Debug("image transformed",
			logging.String("input", filepath.Base(input)),
			logging.String("output", filepath.Base(output)),
			logging.String("mode", action.Mode().String()),
		)
	}

	next := proj.MarkActionCompleted(action.Name())
	if err := e.store.Save(next); err != nil {
		return proj, transformed, fmt.Errorf("save project: %w", err)
	}
	return next, transformed, nil
}

// stash copies every working file into the stash directory. Copies are
// verified; any failure aborts the action before a destructive step.
func (e *Executor) stash(id string, working []string) error {
	dir, err := e.store.EnsureStashDir(id)
	if err != nil {
		return err
	}
	for _, path := range working {
		if err := fileutil.CopyFileVerified(path, filepath.Join(dir, filepath.Base(path))); err != nil {
			return fmt.Errorf("stash %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// checkPredecessor requires every working file not yet carrying the action's
// own marker to carry the predecessor's marker.
func (e *Executor) checkPredecessor(action Action, proj project.Project, working []string) error {
	req := action.Requires()
	if req == "" {
		return nil
	}
	predecessor, err := e.registry.Lookup(req)
	if err != nil {
		return err
	}
	unmet := func(detail string) error {
		return services.Wrap(services.ErrDependencyUnmet, "actions", action.Name(),
			fmt.Sprintf("requires %s: %s", req, detail), nil)
	}
	if len(working) == 0 && !proj.ActionCompleted(req) {
		return unmet("action has not run")
	}
	marker := predecessor.Marker()
	for _, path := range working {
		name := filepath.Base(path)
		if HasMarker(name, action.Marker()) {
			continue
		}
		if !HasMarker(name, marker) {
			return unmet(name + " has not been processed")
		}
	}
	return nil
}
