// Package taskgraph provides the dependency graph of tasks for one objective
// and the builder that expands objectives into graphs.
package taskgraph

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/toposort"

	"github.com/apiarylabs/regent/pkg/models"
)

// ErrCycleDetected indicates a circular dependency in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrUnknownTask indicates an operation referenced a task not in the graph.
var ErrUnknownTask = errors.New("unknown task")

// ErrInvalidTransition indicates a status change that the task state machine
// does not allow.
var ErrInvalidTransition = errors.New("invalid task transition")

// ErrDependenciesIncomplete indicates a task was asked to complete while one
// of its dependencies is not completed.
var ErrDependenciesIncomplete = errors.New("dependencies not completed")

// Graph is the directed acyclic graph of tasks for a single objective.
// Tasks are nodes; edges point at the tasks a node is blocked by. The graph
// also tracks task-to-agent assignments. One Graph exists per active
// objective and is owned exclusively by the coordinator.
type Graph struct {
	mu          sync.RWMutex
	objectiveID string
	// order preserves task insertion order for deterministic iteration.
	order []string
	// nodes maps task ID to the task itself.
	nodes map[string]*models.Task
	// edges maps task ID to the IDs of tasks it depends on.
	edges map[string][]string
	// assignments maps task ID to the agent the task is assigned to.
	assignments map[string]string
}

// New creates an empty graph for the given objective.
func New(objectiveID string) *Graph {
	return &Graph{
		objectiveID: objectiveID,
		nodes:       make(map[string]*models.Task),
		edges:       make(map[string][]string),
		assignments: make(map[string]string),
	}
}

// ObjectiveID returns the objective this graph belongs to.
func (g *Graph) ObjectiveID() string {
	return g.objectiveID
}

// Build registers tasks and their dependency edges. It rejects dependency
// references outside the graph and validates acyclicity up front, so an
// invalid template can never produce a persisted graph.
func (g *Graph) Build(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, task := range tasks {
		if _, dup := g.nodes[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		g.nodes[task.ID] = task
		g.order = append(g.order, task.ID)
		g.edges[task.ID] = nil
	}

	var edges []toposort.Edge
	for _, task := range tasks {
		if len(task.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, task.ID})
			continue
		}
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on %s: %w", task.ID, depID, ErrUnknownTask)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
			edges = append(edges, toposort.Edge{depID, task.ID})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("%w: %v", ErrCycleDetected, err)
	}
	return nil
}

// Task returns the task for an ID, or nil if not present.
func (g *Graph) Task(taskID string) *models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Tasks returns all tasks in insertion order.
func (g *Graph) Tasks() []*models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(g.order))
	for _, id := range g.order {
		tasks = append(tasks, g.nodes[id])
	}
	return tasks
}

// Snapshot returns detached copies of all tasks in insertion order. The live
// records never leave the graph, so callers may read a snapshot from any
// goroutine while the owning coordinator keeps mutating task state.
func (g *Graph) Snapshot() []*models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	tasks := make([]*models.Task, 0, len(g.order))
	for _, id := range g.order {
		tasks = append(tasks, g.nodes[id].Clone())
	}
	return tasks
}

// Size returns the number of tasks in the graph.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs of tasks the given task depends on.
func (g *Graph) Dependencies(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[taskID]
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *Graph) Dependents(taskID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if depID == taskID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}

// ReadyFrontier returns pending tasks whose dependencies are all completed,
// in insertion order. These tasks may run concurrently.
func (g *Graph) ReadyFrontier() []*models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []*models.Task
	for _, id := range g.order {
		task := g.nodes[id]
		if task.Status != models.TaskStatusPending {
			continue
		}
		if g.depsCompletedLocked(id) {
			ready = append(ready, task)
		}
	}
	return ready
}

func (g *Graph) depsCompletedLocked(taskID string) bool {
	for _, depID := range g.edges[taskID] {
		dep := g.nodes[depID]
		if dep == nil || dep.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// Transition moves a task to the next status, enforcing the task state
// machine and the dependency invariant: a task can never be marked completed
// while any of its dependencies is not completed.
func (g *Graph) Transition(taskID string, next models.TaskStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, ok := g.nodes[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	if !task.Status.CanTransitionTo(next) {
		return fmt.Errorf("task %s: %s -> %s: %w", taskID, task.Status, next, ErrInvalidTransition)
	}
	if next == models.TaskStatusCompleted && !g.depsCompletedLocked(taskID) {
		return fmt.Errorf("task %s: %w", taskID, ErrDependenciesIncomplete)
	}

	now := time.Now()
	switch next {
	case models.TaskStatusInProgress:
		task.StartedAt = &now
	case models.TaskStatusCompleted, models.TaskStatusFailed, models.TaskStatusCancelled:
		task.CompletedAt = &now
	}
	task.Status = next
	return nil
}

// Assign binds a task to an agent. Assignment is recorded on both the graph
// and the task.
func (g *Graph) Assign(taskID, agentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, ok := g.nodes[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrUnknownTask)
	}
	g.assignments[taskID] = agentID
	task.AssignedTo = agentID
	return nil
}

// Unassign removes a task's agent binding, returning it to the unassigned
// pool. Used when reaping stale tasks.
func (g *Graph) Unassign(taskID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if task, ok := g.nodes[taskID]; ok {
		task.AssignedTo = ""
	}
	delete(g.assignments, taskID)
}

// AssignedAgent returns the agent a task is assigned to, or "" if unassigned.
func (g *Graph) AssignedAgent(taskID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.assignments[taskID]
}

// Unassigned returns tasks with no agent assignment, in insertion order.
func (g *Graph) Unassigned() []*models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*models.Task
	for _, id := range g.order {
		if g.assignments[id] == "" {
			out = append(out, g.nodes[id])
		}
	}
	return out
}

// CountByStatus returns the number of tasks in the given status.
func (g *Graph) CountByStatus(status models.TaskStatus) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, task := range g.nodes {
		if task.Status == status {
			n++
		}
	}
	return n
}

// Complete reports whether every task in the graph reached completed.
func (g *Graph) Complete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.nodes) == 0 {
		return false
	}
	for _, task := range g.nodes {
		if task.Status != models.TaskStatusCompleted {
			return false
		}
	}
	return true
}

// InsertFront registers new tasks ahead of existing pending work. Remediation
// tasks injected after a permission failure use this so they surface first in
// the ready frontier. The tasks must not depend on anything outside the graph,
// and the merged graph must stay acyclic; a rejected batch leaves the graph
// untouched.
func (g *Graph) InsertFront(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	incoming := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if _, dup := g.nodes[task.ID]; dup || incoming[task.ID] {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		incoming[task.ID] = true
	}
	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists && !incoming[depID] {
				return fmt.Errorf("task %s depends on %s: %w", task.ID, depID, ErrUnknownTask)
			}
		}
	}

	var edges []toposort.Edge
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, depID := range g.edges[id] {
			edges = append(edges, toposort.Edge{depID, id})
		}
	}
	for _, task := range tasks {
		if len(task.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, task.ID})
			continue
		}
		for _, depID := range task.DependsOn {
			edges = append(edges, toposort.Edge{depID, task.ID})
		}
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("%w: %v", ErrCycleDetected, err)
	}

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		g.nodes[task.ID] = task
		g.edges[task.ID] = append([]string(nil), task.DependsOn...)
		ids = append(ids, task.ID)
	}
	g.order = append(ids, g.order...)
	return nil
}
