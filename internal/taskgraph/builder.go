package taskgraph

import (
	"fmt"
	"strings"
	"time"

	"github.com/apiarylabs/regent/pkg/models"
)

// Builder expands a classified objective into a task graph using the
// type-specific templates.
type Builder struct {
	templates *TemplateSet
}

// NewBuilder creates a Builder over the given template set.
func NewBuilder(templates *TemplateSet) *Builder {
	if templates == nil {
		templates = NewTemplateSet()
	}
	return &Builder{templates: templates}
}

// anchorKeywords marks the structural task that parallel-safe groups hang off.
var anchorKeywords = []string{"template", "structure"}

// parallelGroups are keyword sets whose tasks depend only on the anchor task
// instead of chaining, making them mutually independent.
var parallelGroups = [][]string{
	{"style", "css"},
	{"client", "controller"},
}

// Build expands the objective into a validated graph. The default dependency
// rule is a pure chain: each task depends on the immediately preceding one.
// Tasks matching a parallel-safe group instead depend only on the anchor
// task, which is what later enables wave-based spawning.
func (b *Builder) Build(obj *models.Objective, analysis *models.TaskAnalysis) (*Graph, error) {
	tpl := b.templates.Get(analysis.Type)
	now := time.Now()

	tasks := make([]*models.Task, 0, len(tpl.Entries))
	for i, entry := range tpl.Entries {
		priority := entry.Priority
		if priority == "" {
			priority = models.PriorityMedium
		}
		tasks = append(tasks, &models.Task{
			ID:          fmt.Sprintf("%s-task-%d", obj.ID, i+1),
			ObjectiveID: obj.ID,
			Content:     entry.Content,
			Status:      models.TaskStatusPending,
			Priority:    priority,
			CreatedAt:   now,
		})
	}

	wireDependencies(tasks)

	g := New(obj.ID)
	if err := g.Build(tasks); err != nil {
		return nil, fmt.Errorf("build graph for %s: %w", obj.ID, err)
	}
	return g, nil
}

// wireDependencies applies the chain rule with parallel-safe overrides.
func wireDependencies(tasks []*models.Task) {
	anchor := findAnchor(tasks)

	for i, task := range tasks {
		if i == 0 {
			continue
		}
		if anchor != nil && task.ID != anchor.ID && matchesParallelGroup(task.Content) {
			task.DependsOn = []string{anchor.ID}
			continue
		}
		// Chain to the nearest preceding task that is not in a parallel
		// group, so chained tasks do not accidentally depend on a
		// parallel-safe sibling.
		for j := i - 1; j >= 0; j-- {
			prev := tasks[j]
			if anchor != nil && prev.ID != anchor.ID && matchesParallelGroup(prev.Content) {
				continue
			}
			task.DependsOn = []string{prev.ID}
			break
		}
	}
}

func findAnchor(tasks []*models.Task) *models.Task {
	for _, task := range tasks {
		content := strings.ToLower(task.Content)
		for _, kw := range anchorKeywords {
			if strings.Contains(content, kw) {
				return task
			}
		}
	}
	return nil
}

func matchesParallelGroup(content string) bool {
	lower := strings.ToLower(content)
	for _, group := range parallelGroups {
		for _, kw := range group {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
