// Package planner derives bounded-concurrency execution plans from task
// graphs.
package planner

import (
	"strings"

	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

// Planner computes execution plans. Plans are derived, never persisted, and
// recomputed whenever spawning is requested.
type Planner struct {
	maxConcurrent int
}

// New creates a Planner with the given concurrency cap. Caps below one are
// treated as one.
func New(maxConcurrent int) *Planner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Planner{maxConcurrent: maxConcurrent}
}

// Plan walks the graph's ready frontier wave by wave, grouping ready tasks by
// the role that can satisfy them and packing roles into waves up to the
// concurrency cap. Dependencies are honored in the simulated sense: a task
// only enters a wave once every dependency is planned or already completed.
//
// When the first frontier yields fewer than two independent roles, the plan
// falls back to sequential spawning: one agent per required role, in the
// order the analyzer listed them.
func (p *Planner) Plan(g *taskgraph.Graph, analysis *models.TaskAnalysis, activeAgents int) *models.ExecutionPlan {
	plan := &models.ExecutionPlan{ObjectiveID: g.ObjectiveID()}

	roster := analysis.RequiredCapabilities
	done := make(map[string]bool)
	pending := make(map[string]*models.Task)
	var order []string
	for _, task := range g.Tasks() {
		switch task.Status {
		case models.TaskStatusCompleted:
			done[task.ID] = true
		case models.TaskStatusPending:
			pending[task.ID] = task
			order = append(order, task.ID)
		}
	}

	// Probe the first frontier for independence before committing to waves.
	firstRoles := distinctRoles(frontierOf(order, pending, done, g), roster)
	if len(firstRoles) < 2 {
		p.sequential(plan, order, pending, roster)
		return plan
	}

	capacity := p.maxConcurrent - activeAgents
	if capacity < 1 {
		capacity = 1
	}

	for len(pending) > 0 {
		frontier := frontierOf(order, pending, done, g)
		if len(frontier) == 0 {
			// Remaining tasks are blocked behind unmatched or failed work;
			// the progress monitor reports them, the plan stops here.
			break
		}

		slots := groupByRole(frontier, roster)
		if len(slots) == 0 {
			// Nothing on the frontier matches a role. Drop the frontier from
			// planning without unblocking dependents.
			for _, task := range frontier {
				delete(pending, task.ID)
			}
			continue
		}

		for len(slots) > 0 {
			take := capacity
			if take > len(slots) {
				take = len(slots)
			}
			wave := models.Wave{Slots: slots[:take]}
			slots = slots[take:]
			plan.Waves = append(plan.Waves, wave)
			if len(wave.Slots) > 1 {
				plan.Parallel = true
			}
			for _, slot := range wave.Slots {
				for _, id := range slot.TaskIDs {
					done[id] = true
					delete(pending, id)
				}
			}
			// Later waves have the full cap available.
			capacity = p.maxConcurrent
		}

		// Frontier tasks that matched no role never unblock dependents.
		for _, task := range frontier {
			delete(pending, task.ID)
		}
	}
	return plan
}

// sequential emits one wave per required role, in roster order, each carrying
// every task that role can satisfy.
func (p *Planner) sequential(plan *models.ExecutionPlan, order []string, pending map[string]*models.Task, roster []models.Role) {
	claimed := make(map[string]bool)
	for _, role := range roster {
		var taskIDs []string
		for _, id := range order {
			task, ok := pending[id]
			if !ok || claimed[id] {
				continue
			}
			if roleMatches(role, task.Content) {
				taskIDs = append(taskIDs, id)
				claimed[id] = true
			}
		}
		if len(taskIDs) == 0 {
			continue
		}
		plan.Waves = append(plan.Waves, models.Wave{
			Slots: []models.WaveSlot{{Role: role, TaskIDs: taskIDs}},
		})
	}
	plan.Parallel = false
}

// frontierOf returns pending tasks whose dependencies are all in the done
// set, in insertion order.
func frontierOf(order []string, pending map[string]*models.Task, done map[string]bool, g *taskgraph.Graph) []*models.Task {
	var frontier []*models.Task
	for _, id := range order {
		task, ok := pending[id]
		if !ok {
			continue
		}
		ready := true
		for _, depID := range g.Dependencies(id) {
			if !done[depID] {
				ready = false
				break
			}
		}
		if ready {
			frontier = append(frontier, task)
		}
	}
	return frontier
}

// groupByRole buckets frontier tasks under the first roster role that matches
// their content, preserving roster order.
func groupByRole(frontier []*models.Task, roster []models.Role) []models.WaveSlot {
	byRole := make(map[models.Role][]string)
	for _, task := range frontier {
		for _, role := range roster {
			if roleMatches(role, task.Content) {
				byRole[role] = append(byRole[role], task.ID)
				break
			}
		}
	}

	var slots []models.WaveSlot
	for _, role := range roster {
		if ids := byRole[role]; len(ids) > 0 {
			slots = append(slots, models.WaveSlot{Role: role, TaskIDs: ids})
		}
	}
	return slots
}

func distinctRoles(frontier []*models.Task, roster []models.Role) []models.Role {
	seen := make(map[models.Role]bool)
	var roles []models.Role
	for _, task := range frontier {
		for _, role := range roster {
			if roleMatches(role, task.Content) {
				if !seen[role] {
					seen[role] = true
					roles = append(roles, role)
				}
				break
			}
		}
	}
	return roles
}

// roleMatches tests whether any keyword in the role's capability roster
// appears as a substring of the task content, case-insensitively.
func roleMatches(role models.Role, content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range role.Capabilities() {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
