package coordinator

import (
	"fmt"
)

// ValidationError indicates a malformed objective or an invalid task graph.
// The objective never enters the analyzed state when one is returned.
type ValidationError struct {
	// Field names the offending input, when known.
	Field string
	// Detail describes what was wrong.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError indicates an operation referenced an unknown objective or
// task. Operations returning it have no side effects.
type NotFoundError struct {
	// Kind names what was looked up ("objective", "task", "agent").
	Kind string
	// ID is the identifier that was not found.
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ExecutionFailure records a task whose external execution failed for
// reasons other than permissions. The task is marked failed and surfaced as
// a blocking issue; the coordinator never silently retries it.
type ExecutionFailure struct {
	ObjectiveID string
	TaskID      string
	Err         error
}

func (e *ExecutionFailure) Error() string {
	return fmt.Sprintf("task %s execution failed: %v", e.TaskID, e.Err)
}

func (e *ExecutionFailure) Unwrap() error { return e.Err }

// CoordinationError indicates an internal invariant violation, such as a
// missing task graph for a tracked objective. It is logged to the pattern
// store for learning before being returned to the caller.
type CoordinationError struct {
	ObjectiveID string
	Op          string
	Err         error
}

func (e *CoordinationError) Error() string {
	return fmt.Sprintf("coordination error in %s for objective %s: %v", e.Op, e.ObjectiveID, e.Err)
}

func (e *CoordinationError) Unwrap() error { return e.Err }
