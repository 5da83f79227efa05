package taskgraph

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/apiarylabs/regent/pkg/models"
)

// TemplateEntry is one task description in a type template.
type TemplateEntry struct {
	// Content is the task description.
	Content string `yaml:"content"`
	// Priority is the task priority; defaults to medium when empty.
	Priority models.Priority `yaml:"priority,omitempty"`
}

// Template is the ordered task list for one task type.
type Template struct {
	// Type is the task type this template expands.
	Type models.TaskType `yaml:"type"`
	// Entries are expanded in order. Dependencies follow the chain rule with
	// parallel-safe overrides applied afterwards.
	Entries []TemplateEntry `yaml:"tasks"`
}

// builtinTemplates is the hand-authored template per task type. Every type in
// the closed TaskType set has an entry, so expansion can never come up empty.
var builtinTemplates = map[models.TaskType]Template{
	models.TypeInteractiveComponent: {
		Type: models.TypeInteractiveComponent,
		Entries: []TemplateEntry{
			{Content: "Gather requirements and identify data sources", Priority: models.PriorityHigh},
			{Content: "Create widget template structure", Priority: models.PriorityHigh},
			{Content: "Add CSS styling and responsive layout", Priority: models.PriorityMedium},
			{Content: "Implement client controller script", Priority: models.PriorityHigh},
			{Content: "Implement server data script", Priority: models.PriorityHigh},
			{Content: "Wire widget options and configuration schema", Priority: models.PriorityMedium},
			{Content: "Test widget rendering and data binding", Priority: models.PriorityMedium},
		},
	},
	models.TypeProcessAutomation: {
		Type: models.TypeProcessAutomation,
		Entries: []TemplateEntry{
			{Content: "Map the process trigger and entry conditions", Priority: models.PriorityHigh},
			{Content: "Define workflow stages and transitions", Priority: models.PriorityHigh},
			{Content: "Configure approval routing and approvers", Priority: models.PriorityHigh},
			{Content: "Implement notification and escalation steps", Priority: models.PriorityMedium},
			{Content: "Validate workflow transitions end to end", Priority: models.PriorityMedium},
		},
	},
	models.TypeAccessControl: {
		Type: models.TypeAccessControl,
		Entries: []TemplateEntry{
			{Content: "Inventory affected tables and operations", Priority: models.PriorityHigh},
			{Content: "Define access rule conditions and roles", Priority: models.PriorityCritical},
			{Content: "Implement access rule scripts", Priority: models.PriorityHigh},
			{Content: "Review and test permission boundaries", Priority: models.PriorityHigh},
		},
	},
	models.TypeIntegration: {
		Type: models.TypeIntegration,
		Entries: []TemplateEntry{
			{Content: "Document external endpoints and auth model", Priority: models.PriorityHigh},
			{Content: "Define integration data mapping", Priority: models.PriorityHigh},
			{Content: "Implement outbound connector", Priority: models.PriorityHigh},
			{Content: "Implement inbound endpoint processing", Priority: models.PriorityMedium},
			{Content: "Add retry and error handling for the connector", Priority: models.PriorityMedium},
			{Content: "Run end-to-end integration test", Priority: models.PriorityMedium},
		},
	},
	models.TypeGeneric: {
		Type: models.TypeGeneric,
		Entries: []TemplateEntry{
			{Content: "Clarify objective scope and acceptance criteria", Priority: models.PriorityMedium},
			{Content: "Draft implementation approach", Priority: models.PriorityMedium},
			{Content: "Implement the requested change", Priority: models.PriorityMedium},
			{Content: "Verify results against the objective", Priority: models.PriorityMedium},
		},
	},
}

// TemplateSet resolves task-type templates, layering optional file-based
// overrides on top of the builtins. Safe for concurrent use; the watcher
// swaps overrides under the lock.
type TemplateSet struct {
	mu        sync.RWMutex
	overrides map[models.TaskType]Template
}

// NewTemplateSet returns a set with only the builtin templates.
func NewTemplateSet() *TemplateSet {
	return &TemplateSet{overrides: make(map[models.TaskType]Template)}
}

// Get returns the template for a task type, falling back to the generic
// template for unknown types.
func (ts *TemplateSet) Get(taskType models.TaskType) Template {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if tpl, ok := ts.overrides[taskType]; ok {
		return tpl
	}
	if tpl, ok := builtinTemplates[taskType]; ok {
		return tpl
	}
	return builtinTemplates[models.TypeGeneric]
}

// LoadOverrides replaces the override set from a YAML file containing a list
// of templates. An override with no tasks is rejected so a bad file can never
// yield an empty graph.
func (ts *TemplateSet) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	var file struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	overrides := make(map[models.TaskType]Template, len(file.Templates))
	for _, tpl := range file.Templates {
		if !tpl.Type.Valid() {
			return fmt.Errorf("template for unknown task type %q", tpl.Type)
		}
		if len(tpl.Entries) == 0 {
			return fmt.Errorf("template for %s has no tasks", tpl.Type)
		}
		for i := range tpl.Entries {
			if tpl.Entries[i].Priority == "" {
				tpl.Entries[i].Priority = models.PriorityMedium
			}
			if !tpl.Entries[i].Priority.Valid() {
				return fmt.Errorf("template for %s: invalid priority %q", tpl.Type, tpl.Entries[i].Priority)
			}
		}
		overrides[tpl.Type] = tpl
	}

	ts.mu.Lock()
	ts.overrides = overrides
	ts.mu.Unlock()
	return nil
}
