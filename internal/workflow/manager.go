package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"audiosketch/internal/actions"
	"audiosketch/internal/config"
	"audiosketch/internal/journal"
	"audiosketch/internal/logging"
	"audiosketch/internal/notifications"
	"audiosketch/internal/pipeline"
	"audiosketch/internal/project"
	"audiosketch/internal/services"
	"audiosketch/internal/services/openai"
	"audiosketch/internal/services/transform"
	"audiosketch/internal/stageexec"
	"audiosketch/internal/textutil"
)

// Dependencies are the collaborators a Manager is built from. Journal is
// optional; Runner defaults to executing the real image tools and Notifier to
// the configured ntfy topic.
type Dependencies struct {
	Provider pipeline.Provider
	Runner   transform.CommandRunner
	Journal  *journal.Store
	Notifier notifications.Service
}

// Manager serves project requests.
type Manager struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *project.Store
	locker   *project.Locker
	pipeline *pipeline.Pipeline
	executor *actions.Executor
	journal  *journal.Store
	notifier notifications.Service
}

// NewManager wires the project store, pipeline and action executor.
func NewManager(cfg *config.Config, logger *slog.Logger, deps Dependencies) (*Manager, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "config is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	store := project.NewStore(cfg.Paths.ProjectsDir, logger)

	var observer stageexec.Observer = recordMetrics
	if deps.Journal != nil {
		observer = chainObservers(recordMetrics, deps.Journal.Observer(logger))
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	registry, err := actions.NewDefaultRegistry(cfg.Actions, deps.Runner)
	if err != nil {
		return nil, fmt.Errorf("build action registry: %w", err)
	}

	return &Manager{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		store:  store,
		locker: project.NewLocker(store),
		pipeline: pipeline.New(deps.Provider, store, pipeline.Options{
			Logger:       logger,
			ImageSize:    cfg.Images.Size,
			ImageQuality: cfg.Images.Quality,
			Observer:     observer,
		}),
		executor: actions.NewExecutor(registry, store, actions.Options{Logger: logger, Observer: observer}),
		journal:  deps.Journal,
		notifier: notifier,
	}, nil
}

// Store exposes the underlying project store.
func (m *Manager) Store() *project.Store { return m.store }

// Submission is one inbound narration request. Fields.ProjectID selects an
// existing project; when it has no record a new project is created.
type Submission struct {
	Fields project.Fields
	Audio  *openai.Audio
}

// Submit finds or creates the project and runs the generation pipeline.
func (m *Manager) Submit(ctx context.Context, sub Submission) (project.Project, error) {
	fields := sub.Fields
	if sub.Audio != nil && strings.TrimSpace(fields.AudioSourceName) == "" {
		fields.AudioSourceName = sub.Audio.Name
	}
	proj, created, err := m.findOrCreate(fields)
	if err != nil {
		return project.Project{}, err
	}
	if created {
		projectsCreatedTotal.Inc()
	}
	return m.RunPipeline(ctx, proj.ID, sub.Audio)
}

// Create validates fields and creates a new project without running stages.
func (m *Manager) Create(fields project.Fields) (project.Project, error) {
	if err := m.validateModel(fields.ImageModel); err != nil {
		return project.Project{}, err
	}
	if strings.TrimSpace(fields.ImageModel) == "" {
		fields.ImageModel = m.cfg.Images.DefaultModel
	}
	proj, err := m.store.Create(fields)
	if err == nil {
		projectsCreatedTotal.Inc()
	}
	return proj, err
}

func (m *Manager) findOrCreate(fields project.Fields) (project.Project, bool, error) {
	if id := strings.TrimSpace(fields.ProjectID); id != "" && m.store.Exists(id) {
		proj, err := m.store.Load(id)
		return proj, false, err
	}
	if err := m.validateModel(fields.ImageModel); err != nil {
		return project.Project{}, false, err
	}
	if strings.TrimSpace(fields.ImageModel) == "" {
		fields.ImageModel = m.cfg.Images.DefaultModel
	}
	return m.store.FindOrCreate(fields)
}

func (m *Manager) validateModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" || m.cfg.SupportsImageModel(model) {
		return nil
	}
	return services.Wrap(services.ErrValidation, "workflow", "submit",
		fmt.Sprintf("unsupported image model %q (supported: %s)", model, strings.Join(m.cfg.Images.Models, ", ")), nil)
}

// Get loads a project.
func (m *Manager) Get(id string) (project.Project, error) {
	return m.store.Load(id)
}

// List summarizes every stored project.
func (m *Manager) List() ([]project.Summary, error) {
	return m.store.List()
}

// ImageModels lists the configured image models; the first is the default.
func (m *Manager) ImageModels() []string {
	models := []string{m.cfg.Images.DefaultModel}
	for _, model := range m.cfg.Images.Models {
		if model != m.cfg.Images.DefaultModel {
			models = append(models, model)
		}
	}
	return models
}

// RunPipeline runs every generation stage for id under the project lock.
// audio may be nil once the transcription is stored.
func (m *Manager) RunPipeline(ctx context.Context, id string, audio *openai.Audio) (project.Project, error) {
	var result project.Project
	err := m.withProject(ctx, id, func(ctx context.Context, proj project.Project) error {
		next, err := m.pipeline.Run(ctx, proj, audio)
		result = next
		return err
	})
	switch {
	case err == nil:
		m.notify(ctx, "pipeline", m.notifier.NotifyPipelineCompleted(ctx, result.ID, result.Name(), len(result.Images)))
	case ctx.Err() == nil && !errors.Is(err, services.ErrNotFound):
		m.notify(ctx, "pipeline", m.notifier.NotifyError(ctx, err, "project "+id))
	}
	return result, err
}

// RunAction applies the named action to id under the project lock.
func (m *Manager) RunAction(ctx context.Context, id, name string) (project.Project, error) {
	if _, err := m.executor.Registry().Lookup(name); err != nil {
		return project.Project{}, err
	}
	var result project.Project
	err := m.withProject(ctx, id, func(ctx context.Context, proj project.Project) error {
		if !proj.Complete() {
			return services.Wrap(services.ErrMissingPrecondition, "workflow", "run action",
				"project images are not complete; run the pipeline first", nil)
		}
		next, err := m.executor.Run(ctx, name, proj)
		result = next
		return err
	})
	if err == nil {
		m.notify(ctx, name, m.notifier.NotifyActionApplied(ctx, id, name))
	}
	return result, err
}

// notify logs notification failures; they never fail the request.
func (m *Manager) notify(ctx context.Context, subject string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notification failed", "notification_failed",
		logging.String("subject", subject),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		logging.String(logging.FieldImpact, "no push notification was delivered"),
	)
}

// ActionStatus describes one registered action for a project.
type ActionStatus struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Requires    string `json:"requires,omitempty"`
	Mode        string `json:"mode"`
	Completed   bool   `json:"completed"`
}

// Actions lists every registered action with its completion state for id.
func (m *Manager) Actions(id string) ([]ActionStatus, error) {
	proj, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	return m.actionStatuses(proj), nil
}

// Pending lists actions not yet completed for id.
func (m *Manager) Pending(id string) ([]string, error) {
	proj, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}
	return m.executor.Registry().Pending(proj), nil
}

func (m *Manager) actionStatuses(proj project.Project) []ActionStatus {
	registry := m.executor.Registry()
	names := registry.Names()
	out := make([]ActionStatus, 0, len(names))
	for _, name := range names {
		action, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ActionStatus{
			Name:        name,
			Title:       textutil.Title(name),
			Description: actions.Describe(action),
			Requires:    action.Requires(),
			Mode:        action.Mode().String(),
			Completed:   proj.ActionCompleted(name),
		})
	}
	return out
}

// History returns the journal entries for id, newest first.
func (m *Manager) History(ctx context.Context, id string, limit int) ([]journal.Entry, error) {
	if !m.store.Exists(id) {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "history", id, nil)
	}
	if m.journal == nil {
		return nil, nil
	}
	return m.journal.History(ctx, id, limit)
}

// withProject serializes fn against other mutations of id and hands it the
// freshly loaded record.
func (m *Manager) withProject(ctx context.Context, id string, fn func(context.Context, project.Project) error) error {
	if !m.store.Exists(id) {
		return services.Wrap(services.ErrNotFound, "workflow", "lock", id, nil)
	}
	unlock, err := m.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	proj, err := m.store.Load(id)
	if err != nil {
		return err
	}
	ctx = services.WithProjectID(ctx, id)
	if err := fn(ctx, proj); err != nil {
		m.logger.Debug("project request failed",
			logging.String(logging.FieldProjectID, id),
			logging.String("outcome", services.Classify(err)),
		)
		return err
	}
	return nil
}
