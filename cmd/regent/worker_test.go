package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/apiarylabs/regent/internal/coordinator"
	"github.com/apiarylabs/regent/pkg/models"
)

// stubStore is an in-memory memory.Store; the coordinator serializes access.
type stubStore struct {
	kv map[string][]byte
}

func newStubStore() *stubStore {
	return &stubStore{kv: make(map[string][]byte)}
}

func (s *stubStore) Put(_ context.Context, key string, value []byte) error {
	s.kv[key] = append([]byte(nil), value...)
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *stubStore) AppendPattern(context.Context, *models.Pattern) error   { return nil }
func (s *stubStore) AppendDecision(context.Context, *models.Decision) error { return nil }

func (s *stubStore) FindSimilarPatterns(context.Context, string) ([]*models.Pattern, error) {
	return nil, nil
}

func (s *stubStore) FindBestPattern(context.Context, models.TaskType) (*models.Pattern, error) {
	return nil, nil
}

func (s *stubStore) Close() error { return nil }

func TestExecuteWarnsOnReportFailure(t *testing.T) {
	coord := coordinator.New(newStubStore(), nil, coordinator.Options{}, nil)
	t.Cleanup(func() { coord.Shutdown(context.Background()) })

	var warnings []string
	w := &localWorker{
		coord:       coord,
		objectiveID: "missing",
		claimed:     make(map[string]bool),
		warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	}

	// No collaborators are configured, so execution simulates success and the
	// result report fails on the untracked objective.
	w.execute(context.Background(), &models.Task{ID: "task-1", Content: "draft a summary"})

	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "task-1") {
		t.Errorf("warning should name the task: %q", warnings[0])
	}
}

func TestRunStopsWhenObjectiveCancelled(t *testing.T) {
	coord := coordinator.New(newStubStore(), nil, coordinator.Options{}, nil)
	t.Cleanup(func() { coord.Shutdown(context.Background()) })
	ctx := context.Background()

	obj := &models.Objective{ID: "obj-1", Description: "do something unusual"}
	if _, err := coord.AnalyzeObjective(ctx, obj); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	w := &localWorker{
		coord:       coord,
		objectiveID: "obj-1",
		claimed:     make(map[string]bool),
		warnf:       func(string, ...any) {},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()

	if err := coord.CancelObjective(ctx, "obj-1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	<-done
}
