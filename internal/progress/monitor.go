// Package progress aggregates task completion into progress reports and
// blocking-issue detection.
package progress

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

// Report is the result of one monitoring pass. Reports are pure functions of
// coordinator state: two passes without an intervening state change return
// identical values.
type Report struct {
	// Overall is completed tasks over total tasks, as a percentage.
	Overall float64 `json:"overall"`
	// ByAgent is the same ratio restricted to each agent's assigned tasks.
	ByAgent map[string]float64 `json:"by_agent"`
	// BlockingIssues are human-readable conditions preventing progress. The
	// slice is non-empty whenever any task is stuck, unassigned, or failed;
	// callers poll this rather than waiting for errors.
	BlockingIssues []string `json:"blocking_issues"`
	// EstimatedRemaining is the linear extrapolation of time to completion.
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
}

// Monitor produces progress reports for an objective's task graph.
type Monitor struct {
	staleThreshold time.Duration
	// now is swappable for tests.
	now func() time.Time
}

// DefaultStaleThreshold is how long a task may sit in_progress before it is
// reported as stale.
const DefaultStaleThreshold = 10 * time.Minute

// maxEstimate bounds the completion estimate when no extrapolation is
// possible yet.
const maxEstimate = 24 * time.Hour

// New creates a Monitor. A non-positive threshold uses the default.
func New(staleThreshold time.Duration) *Monitor {
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleThreshold
	}
	return &Monitor{staleThreshold: staleThreshold, now: time.Now}
}

// Report computes overall and per-agent progress, collects blocking issues,
// and extrapolates the remaining time from elapsed progress since startedAt.
func (m *Monitor) Report(g *taskgraph.Graph, startedAt time.Time) *Report {
	tasks := g.Tasks()
	total := len(tasks)
	completed := 0
	for _, task := range tasks {
		if task.Status == models.TaskStatusCompleted {
			completed++
		}
	}

	report := &Report{ByAgent: make(map[string]float64)}
	if total > 0 {
		report.Overall = float64(completed) / float64(total) * 100
	}
	report.ByAgent = m.byAgent(tasks)
	report.BlockingIssues = m.blockingIssues(g, tasks)
	report.EstimatedRemaining = m.estimate(report.Overall, startedAt)
	return report
}

func (m *Monitor) byAgent(tasks []*models.Task) map[string]float64 {
	totals := make(map[string]int)
	completed := make(map[string]int)
	for _, task := range tasks {
		if task.AssignedTo == "" {
			continue
		}
		totals[task.AssignedTo]++
		if task.Status == models.TaskStatusCompleted {
			completed[task.AssignedTo]++
		}
	}

	out := make(map[string]float64, len(totals))
	for agentID, n := range totals {
		out[agentID] = float64(completed[agentID]) / float64(n) * 100
	}
	return out
}

// blockingIssues reports, in insertion order of the offending tasks:
// pending tasks with incomplete dependencies, pending tasks with no agent
// assignment, failed or cancelled tasks, and stale in_progress tasks.
func (m *Monitor) blockingIssues(g *taskgraph.Graph, tasks []*models.Task) []string {
	var issues []string
	now := m.now()

	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusPending:
			if unmet := m.unmetDependencies(g, task); len(unmet) > 0 {
				issues = append(issues,
					fmt.Sprintf("task %s is waiting on incomplete dependencies: %s",
						task.ID, strings.Join(unmet, ", ")))
			}
			if task.AssignedTo == "" {
				issues = append(issues,
					fmt.Sprintf("task %s is unassigned: no active agent has matching capabilities", task.ID))
			}
		case models.TaskStatusFailed:
			msg := task.Error
			if msg == "" {
				msg = "execution failed"
			}
			issues = append(issues, fmt.Sprintf("task %s failed: %s", task.ID, msg))
		case models.TaskStatusCancelled:
			issues = append(issues, fmt.Sprintf("task %s was cancelled", task.ID))
		case models.TaskStatusInProgress:
			if task.StartedAt != nil && now.Sub(*task.StartedAt) > m.staleThreshold {
				issues = append(issues,
					fmt.Sprintf("task %s has been in progress for %s (threshold %s)",
						task.ID, now.Sub(*task.StartedAt).Round(time.Second), m.staleThreshold))
			}
		}
	}
	return issues
}

func (m *Monitor) unmetDependencies(g *taskgraph.Graph, task *models.Task) []string {
	var unmet []string
	for _, depID := range g.Dependencies(task.ID) {
		dep := g.Task(depID)
		if dep == nil || dep.Status != models.TaskStatusCompleted {
			unmet = append(unmet, depID)
		}
	}
	sort.Strings(unmet)
	return unmet
}

// Stale returns in_progress tasks older than the given threshold. The
// coordinator uses this with a grace period to reap abandoned tasks.
func (m *Monitor) Stale(g *taskgraph.Graph, threshold time.Duration) []*models.Task {
	now := m.now()
	var stale []*models.Task
	for _, task := range g.Tasks() {
		if task.Status != models.TaskStatusInProgress || task.StartedAt == nil {
			continue
		}
		if now.Sub(*task.StartedAt) > threshold {
			stale = append(stale, task)
		}
	}
	return stale
}

// estimate linearly extrapolates the remaining time. With no measurable
// progress the estimate is clamped to the maximum rather than reported as
// infinite.
func (m *Monitor) estimate(overall float64, startedAt time.Time) time.Duration {
	if overall >= 100 {
		return 0
	}
	elapsed := m.now().Sub(startedAt)
	if overall <= 0 || elapsed <= 0 {
		return maxEstimate
	}
	remaining := time.Duration(float64(elapsed)/overall*100) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	if remaining > maxEstimate {
		remaining = maxEstimate
	}
	return remaining
}
