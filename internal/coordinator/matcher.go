package coordinator

import (
	"sort"
	"strings"

	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/pkg/models"
)

// Assignment binds one task to one agent.
type Assignment struct {
	TaskID  string
	AgentID string
}

// assignTasks binds unassigned pending tasks to active agents by capability.
// A task matches an agent when any keyword in the agent's capability roster
// appears as a substring of the task's lower-cased content. Matching is
// greedy, first-come: tasks are visited in graph insertion order and each
// takes the first matching agent. When several agents match the same task,
// the lexicographically smallest agent ID wins, so assignment is
// deterministic regardless of map iteration order.
//
// Tasks with no matching agent are left unassigned; the progress monitor
// surfaces them as blocking issues rather than dropping them.
func assignTasks(g *taskgraph.Graph, agents map[string]*models.Agent) []Assignment {
	candidates := make([]*models.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Status == models.AgentStatusActive {
			candidates = append(candidates, a)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})

	var out []Assignment
	for _, task := range g.Unassigned() {
		if task.Status != models.TaskStatusPending {
			continue
		}
		content := strings.ToLower(task.Content)
		for _, agent := range candidates {
			if !capabilitiesMatch(agent.Capabilities, content) {
				continue
			}
			if err := g.Assign(task.ID, agent.ID); err != nil {
				debugLog("assign %s to %s failed: %v", task.ID, agent.ID, err)
				break
			}
			out = append(out, Assignment{TaskID: task.ID, AgentID: agent.ID})
			break
		}
	}
	return out
}

// capabilitiesMatch reports whether any capability keyword appears in the
// lower-cased task content.
func capabilitiesMatch(capabilities []string, content string) bool {
	for _, kw := range capabilities {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}
