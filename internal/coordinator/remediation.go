package coordinator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apiarylabs/regent/pkg/models"
)

// ErrorContext carries the situation an external worker reported a failure
// from.
type ErrorContext struct {
	// ObjectiveID is the objective the failed work belonged to.
	ObjectiveID string
	// AgentID is the agent that was executing, if known.
	AgentID string
	// TaskID is the task that was executing, if known.
	TaskID string
	// Operation is what the worker was doing ("create", "update", ...).
	Operation string
	// ArtifactType is the kind of artifact involved, if any.
	ArtifactType string
}

// Remediation options the decision engine may pick for stalled objectives.
// Choosing one of these re-enters the spawning state.
const (
	OptionSpawnHelperAgent = "spawn_helper_agent"
	OptionReassignTask     = "reassign_task"
)

// remediationOptions is the closed set of options that count as automatic
// remediations when chosen for a stalled objective.
var remediationOptions = map[string]bool{
	OptionSpawnHelperAgent: true,
	OptionReassignTask:     true,
}

// permissionRemediationTasks synthesizes the high-priority tasks injected at
// the head of the pending queue after a permission failure. The retry task
// depends on the manual-action tasks so it only becomes ready once the
// operator work is done.
func permissionRemediationTasks(errCtx ErrorContext, operation, resource string) []*models.Task {
	now := time.Now()
	suffix := uuid.New().String()[:8]
	grantID := fmt.Sprintf("%s-remediate-%s-1", errCtx.ObjectiveID, suffix)
	verifyID := fmt.Sprintf("%s-remediate-%s-2", errCtx.ObjectiveID, suffix)
	retryID := fmt.Sprintf("%s-remediate-%s-3", errCtx.ObjectiveID, suffix)

	return []*models.Task{
		{
			ID:          grantID,
			ObjectiveID: errCtx.ObjectiveID,
			Content:     fmt.Sprintf("Manual action: grant %s permission on %s to the service account", operation, resource),
			Status:      models.TaskStatusPending,
			Priority:    models.PriorityCritical,
			CreatedAt:   now,
		},
		{
			ID:          verifyID,
			ObjectiveID: errCtx.ObjectiveID,
			Content:     fmt.Sprintf("Manual action: verify access to %s with a read check", resource),
			Status:      models.TaskStatusPending,
			Priority:    models.PriorityCritical,
			DependsOn:   []string{grantID},
			CreatedAt:   now,
		},
		{
			ID:          retryID,
			ObjectiveID: errCtx.ObjectiveID,
			Content:     fmt.Sprintf("Retry %s on %s after permission fix", operation, resource),
			Status:      models.TaskStatusPending,
			Priority:    models.PriorityHigh,
			DependsOn:   []string{verifyID},
			CreatedAt:   now,
		},
	}
}
