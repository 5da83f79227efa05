package models

// TaskType is the closed set of objective classifications. Classification
// selects the task template and the capability roster for spawning.
type TaskType string

const (
	// TypeInteractiveComponent is UI component work (widgets, pages, portals).
	TypeInteractiveComponent TaskType = "interactive-component"
	// TypeProcessAutomation is workflow and approval routing work.
	TypeProcessAutomation TaskType = "process-automation"
	// TypeAccessControl is permission and access-rule work.
	TypeAccessControl TaskType = "access-control"
	// TypeIntegration is external-system wiring work.
	TypeIntegration TaskType = "integration"
	// TypeGeneric is the fallback when no keywords match. This is a
	// deliberate default, not an error.
	TypeGeneric TaskType = "generic"
)

// Valid returns true if the task type is a known value.
func (t TaskType) Valid() bool {
	switch t {
	case TypeInteractiveComponent, TypeProcessAutomation, TypeAccessControl,
		TypeIntegration, TypeGeneric:
		return true
	default:
		return false
	}
}

// TaskAnalysis is the result of classifying an objective description.
type TaskAnalysis struct {
	// Type is the classified task type.
	Type TaskType `json:"type"`
	// RequiredCapabilities is the ordered roster of agent roles the
	// objective needs, most essential first. Sequential spawning follows
	// this order.
	RequiredCapabilities []Role `json:"required_capabilities"`
	// EstimatedComplexity is a weighted score clipped to [1,10].
	EstimatedComplexity int `json:"estimated_complexity"`
	// Dependencies lists external prerequisites detected in the description.
	Dependencies []string `json:"dependencies,omitempty"`
	// PatternHint is the best historical pattern for this task type, if any.
	// It is advisory only and never binds spawning decisions.
	PatternHint *Pattern `json:"pattern_hint,omitempty"`
}
