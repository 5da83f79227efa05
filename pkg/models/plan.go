package models

// ExecutionPlan is an ordered sequence of waves derived from a task graph.
// Plans are recomputed whenever spawning is requested and never persisted.
type ExecutionPlan struct {
	// ObjectiveID is the objective this plan was computed for.
	ObjectiveID string `json:"objective_id"`
	// Waves are executed in order; tasks within one wave are independent and
	// carry no ordering guarantee relative to each other.
	Waves []Wave `json:"waves"`
	// Parallel is false when the planner fell back to sequential spawning.
	Parallel bool `json:"parallel"`
}

// Wave is a set of role/task pairings that may run concurrently. The number
// of slots in a wave never exceeds the configured agent cap.
type Wave struct {
	// Slots pair a role with the tasks it should pick up in this wave.
	Slots []WaveSlot `json:"slots"`
}

// WaveSlot pairs an agent role with a subset of task IDs.
type WaveSlot struct {
	// Role is the agent role that satisfies the tasks in this slot.
	Role Role `json:"role"`
	// TaskIDs are the tasks grouped under this role for the wave.
	TaskIDs []string `json:"task_ids"`
}

// TaskCount returns the total number of tasks across all waves.
func (p *ExecutionPlan) TaskCount() int {
	n := 0
	for _, w := range p.Waves {
		for _, s := range w.Slots {
			n += len(s.TaskIDs)
		}
	}
	return n
}
