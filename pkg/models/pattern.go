package models

import "time"

// Pattern is a historical record of how an agent sequence performed for a
// task type. Patterns are append-only: one is written after each completed
// objective and they are never mutated afterwards.
type Pattern struct {
	// ID is the unique identifier for this pattern.
	ID string `json:"id"`
	// TaskType is the objective classification this pattern applies to.
	TaskType TaskType `json:"task_type"`
	// AgentSequence is the ordered list of roles that executed the objective.
	AgentSequence []Role `json:"agent_sequence"`
	// SuccessRate is the fraction of tasks that completed, in [0,1].
	SuccessRate float64 `json:"success_rate"`
	// AvgDuration is the mean task duration observed.
	AvgDuration time.Duration `json:"avg_duration"`
	// LastUsed is when this pattern last informed a decision.
	LastUsed time.Time `json:"last_used"`
}

// Decision is a write-once audit record of a scored choice among candidate
// options.
type Decision struct {
	// ID is the unique identifier for this decision.
	ID string `json:"id"`
	// Context is the objective text the decision was made against.
	Context string `json:"context"`
	// Options lists the candidate actions that were scored.
	Options []string `json:"options"`
	// Chosen is the selected option.
	Chosen string `json:"chosen"`
	// Confidence is the normalized score of the chosen option, in [0,1].
	Confidence float64 `json:"confidence"`
	// Reasoning concatenates the factors that contributed to the score.
	Reasoning string `json:"reasoning"`
	// Timestamp is when the decision was made.
	Timestamp time.Time `json:"timestamp"`
}
