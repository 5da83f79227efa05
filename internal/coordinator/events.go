// Package coordinator composes the analyzer, task graph, planner, monitor,
// and decision engine into the objective lifecycle façade.
package coordinator

import (
	"time"
)

// EventType represents the type of coordinator event.
type EventType string

const (
	// EventObjectiveAnalyzing indicates analysis of an objective has started.
	EventObjectiveAnalyzing EventType = "objective_analyzing"
	// EventObjectiveAnalyzed indicates analysis finished and a graph was built.
	EventObjectiveAnalyzed EventType = "objective_analyzed"
	// EventObjectiveError indicates an objective could not be processed.
	EventObjectiveError EventType = "objective_error"
	// EventObjectiveCompleted indicates every task in the graph completed.
	EventObjectiveCompleted EventType = "objective_completed"
	// EventObjectiveStalled indicates no task can make progress.
	EventObjectiveStalled EventType = "objective_stalled"
	// EventObjectiveCancelled indicates the objective was cancelled.
	EventObjectiveCancelled EventType = "objective_cancelled"
	// EventAgentSpawned indicates a logical agent was created.
	EventAgentSpawned EventType = "agent_spawned"
	// EventTasksAssigned indicates tasks were bound to agents.
	EventTasksAssigned EventType = "tasks_assigned"
	// EventTaskUpdated indicates a task changed status.
	EventTaskUpdated EventType = "task_updated"
	// EventProgressUpdated carries a fresh overall progress figure.
	EventProgressUpdated EventType = "progress_updated"
	// EventDecisionMade indicates the decision engine chose an option.
	EventDecisionMade EventType = "decision_made"
	// EventCoordinationError indicates an internal invariant violation.
	EventCoordinationError EventType = "coordination_error"
	// EventManualInterventionRequired indicates no automatic remediation
	// applied to a reported failure.
	EventManualInterventionRequired EventType = "manual_intervention_required"
	// EventShutdown indicates the coordinator is stopping.
	EventShutdown EventType = "shutdown"
)

// Event represents a lifecycle event emitted by the coordinator. Events are
// observable but never required by callers.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// ObjectiveID is the ID of the related objective, if applicable.
	ObjectiveID string
	// AgentID is the ID of the related agent, if applicable.
	AgentID string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Progress is the overall completion percentage for progress events.
	Progress float64
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
