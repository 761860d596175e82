package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

// Kind distinguishes pipeline stages from post-processing actions.
type Kind string

const (
	KindStage  Kind = "stage"
	KindAction Kind = "action"
)

// Outcome describes one finished step.
type Outcome struct {
	Kind      Kind
	Name      string
	ProjectID string
	Skipped   bool
	Err       error
	Started   time.Time
	Duration  time.Duration
}

// Observer receives every outcome, e.g. to append to the run journal.
type Observer func(context.Context, Outcome)

// Options controls step execution.
type Options struct {
	Logger    *slog.Logger
	Kind      Kind
	Name      string
	ProjectID string
	Observer  Observer
}

// Step is the unit of work; it reports skipped when its output already exists.
type Step func(ctx context.Context) (skipped bool, err error)

// Run executes step with consistent start/complete/failure logging and
// reports the outcome to the observer.
func Run(ctx context.Context, opts Options, step Step) error {
	if step == nil {
		return fmt.Errorf("%s handler unavailable: %s", opts.Kind, opts.Name)
	}
	ctx = services.WithProjectID(ctx, opts.ProjectID)
	if opts.Kind == KindAction {
		ctx = services.WithAction(ctx, opts.Name)
	} else {
		ctx = services.WithStage(ctx, opts.Name)
	}
	logger := logging.WithContext(ctx, opts.Logger)

	started := time.Now()
	logger.Debug(string(opts.Kind)+" started", logging.String(logging.FieldEventType, string(opts.Kind)+"_start"))

	skipped, err := step(ctx)
	outcome := Outcome{
		Kind:      opts.Kind,
		Name:      opts.Name,
		ProjectID: opts.ProjectID,
		Skipped:   skipped,
		Err:       err,
		Started:   started,
		Duration:  time.Since(started),
	}
	if opts.Observer != nil {
		opts.Observer(ctx, outcome)
	}

	switch {
	case err != nil:
		logging.ErrorWithContext(logger, string(opts.Kind)+" failed", string(opts.Kind)+"_failure",
			logging.String("outcome", services.Classify(err)),
			logging.Duration("elapsed", outcome.Duration),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint(err)),
		)
	case skipped:
		logger.Debug(string(opts.Kind)+" skipped; output already present",
			logging.String(logging.FieldEventType, string(opts.Kind)+"_skip"),
		)
	default:
		logger.Info(string(opts.Kind)+" completed",
			logging.String(logging.FieldEventType, string(opts.Kind)+"_complete"),
			logging.Duration("elapsed", outcome.Duration),
		)
	}
	return err
}

func hint(err error) string {
	switch services.Classify(err) {
	case "missing_precondition":
		return "run the earlier pipeline stages first"
	case "dependency_unmet":
		return "run the required action first"
	case "provider_error":
		return "check the API key, quota and provider status, then rerun to resume"
	case "transform_failure":
		return "check that the image tool is installed and inspect its stderr"
	default:
		return "check logs for details"
	}
}
