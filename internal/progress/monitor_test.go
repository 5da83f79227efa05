package progress

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

func pendingTask(id, content string, deps ...string) *models.Task {
	return &models.Task{
		ID:          id,
		ObjectiveID: "obj-1",
		Content:     content,
		Status:      models.TaskStatusPending,
		Priority:    models.PriorityMedium,
		DependsOn:   deps,
	}
}

func mustTransition(t *testing.T, g *taskgraph.Graph, id string, states ...models.TaskStatus) {
	t.Helper()
	for _, next := range states {
		if err := g.Transition(id, next); err != nil {
			t.Fatalf("transition %s -> %s: %v", id, next, err)
		}
	}
}

// mixedGraph holds 8 tasks: four completed, one failed, three pending. One
// pending task depends on the failed one.
func mixedGraph(t *testing.T) *taskgraph.Graph {
	t.Helper()
	g := taskgraph.New("obj-1")
	tasks := []*models.Task{
		pendingTask("t0", "Gather requirements"),
		pendingTask("t1", "Create widget template"),
		pendingTask("t2", "Implement client script"),
		pendingTask("t3", "Add styling"),
		pendingTask("t4", "Implement server script"),
		pendingTask("t5", "Configure access rules"),
		pendingTask("t6", "Write documentation"),
		pendingTask("t7", "Test end to end", "t4"),
	}
	if err := g.Build(tasks); err != nil {
		t.Fatalf("build graph: %v", err)
	}
	if err := g.Assign("t0", "agent-a"); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign("t1", "agent-a"); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign("t4", "agent-b"); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign("t5", "agent-b"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"t0", "t1", "t2", "t3"} {
		mustTransition(t, g, id, models.TaskStatusInProgress, models.TaskStatusCompleted)
	}
	mustTransition(t, g, "t4", models.TaskStatusInProgress, models.TaskStatusFailed)
	g.Task("t4").Error = "script rejected by platform"
	return g
}

func TestReportOverall(t *testing.T) {
	g := mixedGraph(t)
	m := New(DefaultStaleThreshold)

	report := m.Report(g, time.Now().Add(-time.Minute))

	if report.Overall != 50.0 {
		t.Errorf("expected 50.0%% overall, got %.1f", report.Overall)
	}
	if got := report.ByAgent["agent-a"]; got != 100.0 {
		t.Errorf("agent-a: expected 100.0, got %.1f", got)
	}
	if got := report.ByAgent["agent-b"]; got != 0.0 {
		t.Errorf("agent-b: expected 0.0, got %.1f", got)
	}
}

func TestReportBlockingIssues(t *testing.T) {
	g := mixedGraph(t)
	m := New(DefaultStaleThreshold)

	report := m.Report(g, time.Now().Add(-time.Minute))

	wantSubstrings := []string{
		"t4 failed: script rejected by platform",
		"t6 is unassigned",
		"t7 is waiting on incomplete dependencies: t4",
	}
	for _, want := range wantSubstrings {
		if !hasIssue(report.BlockingIssues, want) {
			t.Errorf("missing blocking issue containing %q in %v", want, report.BlockingIssues)
		}
	}
	// t5 is assigned with no dependencies; it should not be reported.
	if hasIssue(report.BlockingIssues, "task t5") {
		t.Errorf("t5 should not be blocking: %v", report.BlockingIssues)
	}
}

func TestReportIdempotent(t *testing.T) {
	g := mixedGraph(t)
	m := New(DefaultStaleThreshold)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	startedAt := fixed.Add(-10 * time.Minute)

	first := m.Report(g, startedAt)
	second := m.Report(g, startedAt)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reports differ without a state change:\n%+v\n%+v", first, second)
	}
}

func TestStaleDetection(t *testing.T) {
	g := taskgraph.New("obj-1")
	if err := g.Build([]*models.Task{pendingTask("t0", "Implement server script")}); err != nil {
		t.Fatal(err)
	}
	mustTransition(t, g, "t0", models.TaskStatusInProgress)

	m := New(10 * time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	started := now.Add(-15 * time.Minute)
	g.Task("t0").StartedAt = &started

	stale := m.Stale(g, 10*time.Minute)
	if len(stale) != 1 || stale[0].ID != "t0" {
		t.Fatalf("expected t0 stale, got %v", ids(stale))
	}
	if got := m.Stale(g, 20*time.Minute); len(got) != 0 {
		t.Errorf("expected no stale tasks at 20m threshold, got %v", ids(got))
	}

	report := m.Report(g, now.Add(-time.Hour))
	if !hasIssue(report.BlockingIssues, "t0 has been in progress") {
		t.Errorf("expected stale issue, got %v", report.BlockingIssues)
	}
}

func TestEstimate(t *testing.T) {
	m := New(DefaultStaleThreshold)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	tests := []struct {
		name      string
		overall   float64
		startedAt time.Time
		want      time.Duration
	}{
		{"complete", 100, now.Add(-time.Hour), 0},
		{"no progress clamps to max", 0, now.Add(-time.Hour), maxEstimate},
		{"half done extrapolates linearly", 50, now.Add(-10 * time.Minute), 10 * time.Minute},
		{"slow progress clamps to max", 1, now.Add(-time.Hour), maxEstimate},
		{"not yet started", 0, now, maxEstimate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.estimate(tt.overall, tt.startedAt); got != tt.want {
				t.Errorf("estimate(%v, %v) = %v, want %v", tt.overall, tt.startedAt, got, tt.want)
			}
		})
	}
}

func hasIssue(issues []string, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}

func ids(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}
