package models

import "time"

// AgentStatus represents the current state of a logical agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent has no assigned work.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusActive indicates the agent is working on assigned tasks.
	AgentStatusActive AgentStatus = "active"
	// AgentStatusBlocked indicates the agent cannot proceed.
	AgentStatusBlocked AgentStatus = "blocked"
	// AgentStatusCompleted indicates all of the agent's tasks finished.
	AgentStatusCompleted AgentStatus = "completed"
	// AgentStatusFailed indicates the agent's work failed.
	AgentStatusFailed AgentStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusActive, AgentStatusBlocked,
		AgentStatusCompleted, AgentStatusFailed:
		return true
	default:
		return false
	}
}

// Role is the closed set of agent roles. Each role carries a capability
// roster used for task matching; there is no free-form role dispatch.
type Role string

const (
	// RoleWidgetBuilder builds interactive UI components.
	RoleWidgetBuilder Role = "widget-builder"
	// RoleStylist handles styling and presentation work.
	RoleStylist Role = "stylist"
	// RoleScripter writes client and server controller logic.
	RoleScripter Role = "scripter"
	// RoleFlowDesigner builds process automation workflows.
	RoleFlowDesigner Role = "flow-designer"
	// RoleApprovalManager configures approval routing.
	RoleApprovalManager Role = "approval-manager"
	// RoleSecurityAdmin manages access rules and permissions.
	RoleSecurityAdmin Role = "security-admin"
	// RoleIntegrator wires external systems together.
	RoleIntegrator Role = "integrator"
	// RoleTester validates produced artifacts.
	RoleTester Role = "tester"
	// RoleGeneralist handles work no specialist role claims.
	RoleGeneralist Role = "generalist"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleWidgetBuilder, RoleStylist, RoleScripter, RoleFlowDesigner,
		RoleApprovalManager, RoleSecurityAdmin, RoleIntegrator,
		RoleTester, RoleGeneralist:
		return true
	default:
		return false
	}
}

// roleCapabilities is the single source of truth for role capability rosters.
// Matching tests whether any roster keyword appears as a substring of a
// task's lower-cased content, so entries must be lower-case.
var roleCapabilities = map[Role][]string{
	RoleWidgetBuilder:   {"widget", "template", "structure", "requirement", "option", "configuration"},
	RoleStylist:         {"style", "css", "layout", "theme"},
	RoleScripter:        {"client", "controller", "script", "server", "data"},
	RoleFlowDesigner:    {"workflow", "flow", "trigger", "stage", "transition", "process"},
	RoleApprovalManager: {"approval", "approver", "escalation", "notification"},
	RoleSecurityAdmin:   {"access", "permission", "role", "security", "acl", "table"},
	RoleIntegrator:      {"integration", "endpoint", "connector", "mapping", "auth", "retry"},
	RoleTester:          {"test", "verify", "validate", "review"},
	RoleGeneralist:      {"objective", "clarify", "draft", "implement", "verify", "requirement"},
}

// Capabilities returns the keyword roster for the role. The returned slice
// must not be modified.
func (r Role) Capabilities() []string {
	return roleCapabilities[r]
}

// Agent is a logical worker bound to a role and capability set. Agents are
// bookkeeping entities tracked by the coordinator; actual task execution
// happens in external workers.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// ObjectiveID is the objective this agent serves. An agent's lifetime is
	// bounded by its objective.
	ObjectiveID string `json:"objective_id"`
	// Role is the task-type tag this agent was spawned for.
	Role Role `json:"role"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// Capabilities is the role's keyword roster used for task matching.
	Capabilities []string `json:"capabilities"`
	// Specialization narrows the role, when the spawn request asked for one.
	Specialization string `json:"specialization,omitempty"`
	// StartedAt is when the agent was spawned.
	StartedAt time.Time `json:"started_at"`
}

// Clone returns a detached copy of the agent.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	c := *a
	c.Capabilities = append([]string(nil), a.Capabilities...)
	return &c
}
