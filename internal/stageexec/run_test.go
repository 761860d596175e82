package stageexec

import (
	"context"
	"errors"
	"testing"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

func TestRunReportsOutcomeWithContext(t *testing.T) {
	var got []Outcome
	var sawStage, sawProject string
	opts := Options{
		Logger:    logging.NewNop(),
		Kind:      KindStage,
		Name:      "summarize",
		ProjectID: "abc1234",
		Observer:  func(_ context.Context, o Outcome) { got = append(got, o) },
	}
	err := Run(context.Background(), opts, func(ctx context.Context) (bool, error) {
		sawStage, _ = services.StageFromContext(ctx)
		sawProject, _ = services.ProjectIDFromContext(ctx)
		return false, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sawStage != "summarize" || sawProject != "abc1234" {
		t.Fatalf("step context missing fields: stage=%q project=%q", sawStage, sawProject)
	}
	if len(got) != 1 || got[0].Name != "summarize" || got[0].Skipped || got[0].Err != nil {
		t.Fatalf("unexpected outcomes %+v", got)
	}
}

func TestRunPropagatesErrorAndSkip(t *testing.T) {
	boom := services.Wrap(services.ErrTransformFailure, "transform", "compress", "", errors.New("exit 1"))
	var outcomes []Outcome
	observer := func(_ context.Context, o Outcome) { outcomes = append(outcomes, o) }

	err := Run(context.Background(), Options{Kind: KindAction, Name: "compress", Observer: observer}, func(ctx context.Context) (bool, error) {
		if action, ok := services.ActionFromContext(ctx); !ok || action != "compress" {
			t.Errorf("expected action in context, got %q", action)
		}
		return false, boom
	})
	if !errors.Is(err, services.ErrTransformFailure) {
		t.Fatalf("expected transform failure, got %v", err)
	}
	if err := Run(context.Background(), Options{Kind: KindStage, Name: "transcribe", Observer: observer}, func(context.Context) (bool, error) {
		return true, nil
	}); err != nil {
		t.Fatalf("skip run: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Err == nil || !outcomes[1].Skipped {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestRunNilStep(t *testing.T) {
	if err := Run(context.Background(), Options{Kind: KindStage, Name: "x"}, nil); err == nil {
		t.Fatal("expected error for nil step")
	}
}
