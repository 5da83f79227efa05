package decision

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/apiarylabs/regent/pkg/models"
)

type fakeStore struct {
	patterns map[string][]*models.Pattern
	appended []*models.Decision
	findErr  error
}

func (f *fakeStore) FindSimilarPatterns(_ context.Context, text string) ([]*models.Pattern, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for key, patterns := range f.patterns {
		if strings.Contains(strings.ToLower(text), key) {
			return patterns, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) AppendDecision(_ context.Context, d *models.Decision) error {
	f.appended = append(f.appended, d)
	return nil
}

func pattern(rate float64) *models.Pattern {
	return &models.Pattern{
		ID:            "pat-1",
		TaskType:      models.TypeInteractiveComponent,
		AgentSequence: []models.Role{models.RoleWidgetBuilder},
		SuccessRate:   rate,
		AvgDuration:   2 * time.Minute,
		LastUsed:      time.Now(),
	}
}

func TestDecidePrefersHistoricalSuccess(t *testing.T) {
	store := &fakeStore{patterns: map[string][]*models.Pattern{
		"spawn_helper_agent": {pattern(0.9)},
	}}
	engine := New(store)

	d, err := engine.Decide(context.Background(), Request{
		Objective: "unblock the stalled dashboard build",
		State:     State{Phase: models.StateStalled},
		Options:   []string{"spawn_helper_agent", "reassign_task"},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Chosen != "spawn_helper_agent" {
		t.Errorf("expected spawn_helper_agent chosen, got %q", d.Chosen)
	}
	if d.Confidence <= 0.5 {
		t.Errorf("expected confidence above the neutral rate, got %.2f", d.Confidence)
	}
	if !strings.Contains(d.Reasoning, "historical success rate of 0.90") {
		t.Errorf("reasoning should cite the historical rate: %q", d.Reasoning)
	}
}

func TestDecidePenalizesPriorFailure(t *testing.T) {
	store := &fakeStore{}
	engine := New(store)

	d, err := engine.Decide(context.Background(), Request{
		Objective: "recover the stalled objective",
		State:     State{PreviouslyFailed: []string{"spawn_helper_agent"}},
		Options:   []string{"spawn_helper_agent", "reassign_task"},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Chosen != "reassign_task" {
		t.Errorf("expected the untried option, got %q", d.Chosen)
	}
}

func TestDecideKeywordOverlapBreaksTies(t *testing.T) {
	store := &fakeStore{}
	engine := New(store)

	d, err := engine.Decide(context.Background(), Request{
		Objective: "reassign the blocked review task to another agent",
		Options:   []string{"escalate_to_human", "reassign_task"},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Chosen != "reassign_task" {
		t.Errorf("expected keyword overlap to win the tie, got %q", d.Chosen)
	}
	if !strings.Contains(d.Reasoning, "shared with the objective") {
		t.Errorf("reasoning should mention the overlap: %q", d.Reasoning)
	}
}

func TestDecideRecordsDecision(t *testing.T) {
	store := &fakeStore{}
	engine := New(store)

	d, err := engine.Decide(context.Background(), Request{
		Objective: "pick a path",
		Options:   []string{"alpha", "beta"},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(store.appended) != 1 {
		t.Fatalf("expected 1 recorded decision, got %d", len(store.appended))
	}
	got := store.appended[0]
	if got.Chosen != d.Chosen || got.ID != d.ID {
		t.Errorf("recorded decision differs from the returned one")
	}
	if len(got.Options) != 2 {
		t.Errorf("recorded decision should carry all options, got %v", got.Options)
	}
}

func TestDecideErrors(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		engine := New(&fakeStore{})
		if _, err := engine.Decide(context.Background(), Request{Objective: "anything"}); err == nil {
			t.Fatal("expected error for empty option list")
		}
	})

	t.Run("store lookup failure propagates", func(t *testing.T) {
		lookupErr := errors.New("fts offline")
		engine := New(&fakeStore{findErr: lookupErr})
		_, err := engine.Decide(context.Background(), Request{
			Objective: "anything",
			Options:   []string{"alpha"},
		})
		if !errors.Is(err, lookupErr) {
			t.Fatalf("expected wrapped lookup error, got %v", err)
		}
	})
}

func TestConfidenceClamp(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{1.4, 0.95},
		{0.95, 0.95},
		{0.7, 0.7},
		{0.0, 0.05},
		{-0.3, 0.05},
	}
	for _, tt := range tests {
		if got := confidence(tt.score); got != tt.want {
			t.Errorf("confidence(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestSharedKeywords(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"no overlap", "spawn helper", "cancel everything", 0},
		{"short words ignored", "fix it now", "please fix it", 1},
		{"underscores split", "reassign_task", "reassign the blocked task", 2},
		{"case insensitive", "Reassign Task", "reassign the task", 2},
		{"duplicates counted once", "task task task", "a task list", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sharedKeywords(tt.a, tt.b); got != tt.want {
				t.Errorf("sharedKeywords(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
