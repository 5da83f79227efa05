package models

import "time"

// Objective is a caller-submitted, free-text goal to be decomposed into tasks
// and executed by agents. Objectives are immutable after submission and are
// referenced by ID throughout their lifecycle.
type Objective struct {
	// ID is the unique identifier for this objective.
	ID string `json:"id"`
	// Description is the free-text goal.
	Description string `json:"description"`
	// Priority is the urgency of the objective.
	Priority Priority `json:"priority"`
	// Constraints lists caller-supplied restrictions on execution.
	Constraints []string `json:"constraints,omitempty"`
	// Metadata carries arbitrary caller-supplied context.
	Metadata map[string]any `json:"metadata,omitempty"`
	// CreatedAt is when the objective was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// ObjectiveState represents the lifecycle state of an objective inside the
// coordinator.
type ObjectiveState string

const (
	// StateSubmitted indicates the objective was accepted but not analyzed.
	StateSubmitted ObjectiveState = "submitted"
	// StateAnalyzed indicates classification finished.
	StateAnalyzed ObjectiveState = "analyzed"
	// StateGraphBuilt indicates the task graph was constructed and persisted.
	StateGraphBuilt ObjectiveState = "graph-built"
	// StateSpawning indicates agents are being spawned and assigned.
	StateSpawning ObjectiveState = "spawning"
	// StateMonitoring indicates execution is underway.
	StateMonitoring ObjectiveState = "monitoring"
	// StateCompleted indicates all tasks reached completed.
	StateCompleted ObjectiveState = "completed"
	// StateStalled indicates progress stopped; remediation may re-enter spawning.
	StateStalled ObjectiveState = "stalled"
)

// Valid returns true if the state is a known value.
func (s ObjectiveState) Valid() bool {
	switch s {
	case StateSubmitted, StateAnalyzed, StateGraphBuilt, StateSpawning,
		StateMonitoring, StateCompleted, StateStalled:
		return true
	default:
		return false
	}
}
