// Package analyzer classifies free-text objectives into task types and
// capability rosters.
package analyzer

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/apiarylabs/regent/pkg/models"
)

// PatternSource provides historical pattern lookups. Implemented by the
// memory store; nil disables pattern hints.
type PatternSource interface {
	// FindBestPattern returns the strongest pattern for a task type, or nil
	// when no history exists.
	FindBestPattern(ctx context.Context, taskType models.TaskType) (*models.Pattern, error)
}

// typeMatcher pairs a task type with its classification patterns. Matchers
// are evaluated in order; the first type with any match wins.
type typeMatcher struct {
	taskType models.TaskType
	patterns []*regexp.Regexp
}

// typeRoles maps each task type to its canonical ordered role roster.
// Sequential spawning follows this order.
var typeRoles = map[models.TaskType][]models.Role{
	models.TypeInteractiveComponent: {models.RoleWidgetBuilder, models.RoleScripter, models.RoleStylist, models.RoleTester},
	models.TypeProcessAutomation:    {models.RoleFlowDesigner, models.RoleApprovalManager, models.RoleTester},
	models.TypeAccessControl:        {models.RoleSecurityAdmin, models.RoleTester},
	models.TypeIntegration:          {models.RoleIntegrator, models.RoleScripter, models.RoleTester},
	models.TypeGeneric:              {models.RoleGeneralist},
}

// Analyzer classifies objective descriptions. Classification never fails: an
// unmatched description falls back to the generic type by design.
type Analyzer struct {
	patterns PatternSource
	matchers []typeMatcher

	complexityPatterns []*regexp.Regexp
	dependencyPatterns map[string]*regexp.Regexp
}

// New creates an Analyzer with the default keyword patterns. patterns may be
// nil, which disables historical hints.
func New(patterns PatternSource) *Analyzer {
	return &Analyzer{
		patterns: patterns,
		matchers: []typeMatcher{
			{models.TypeProcessAutomation, compilePatterns([]string{
				`\b(workflow|flow)\b`,
				`\b(approval|approvals|approve)\b`,
				`\b(automate|automation)\b`,
				`\b(business\s+process|process)\b`,
			})},
			{models.TypeAccessControl, compilePatterns([]string{
				`\b(access\s+control|access\s+rule|acl)\b`,
				`\b(permission|permissions)\b`,
				`\b(role-based|rbac)\b`,
				`\b(restrict|authorization)\b`,
			})},
			{models.TypeIntegration, compilePatterns([]string{
				`\b(integration|integrate)\b`,
				`\b(rest|soap|webhook)\b`,
				`\b(api|endpoint)\b`,
				`\b(sync|synchronize|import\s+from|export\s+to)\b`,
			})},
			{models.TypeInteractiveComponent, compilePatterns([]string{
				`\b(widget|widgets)\b`,
				`\b(dashboard|chart|graph|report)\b`,
				`\b(page|portal|form)\b`,
				`\b(ui|component|display|show)\b`,
			})},
		},
		complexityPatterns: compilePatterns([]string{
			`\b(integration|integrate)\b`,
			`\b(approval|approvals)\b`,
			`\b(complex|advanced|multiple|custom)\b`,
			`\b(migrate|migration)\b`,
		}),
		dependencyPatterns: map[string]*regexp.Regexp{
			"ldap":         regexp.MustCompile(`\b(ldap|active\s+directory)\b`),
			"sso":          regexp.MustCompile(`\b(sso|single\s+sign-?on|saml|oauth)\b`),
			"email":        regexp.MustCompile(`\b(email|smtp|notification)\b`),
			"external-api": regexp.MustCompile(`\b(rest|soap|webhook|third-?party)\b`),
			"database":     regexp.MustCompile(`\b(database|sql|table\s+import)\b`),
		},
	}
}

// Analyze classifies the description and assembles the capability roster,
// complexity estimate, detected dependencies, and a non-binding pattern hint.
func (a *Analyzer) Analyze(ctx context.Context, obj *models.Objective) *models.TaskAnalysis {
	description := strings.ToLower(obj.Description)

	taskType := a.classify(description)

	analysis := &models.TaskAnalysis{
		Type:                 taskType,
		RequiredCapabilities: append([]models.Role(nil), typeRoles[taskType]...),
		EstimatedComplexity:  a.complexity(description),
		Dependencies:         a.dependencies(description),
	}

	if a.patterns != nil {
		// Hints are advisory; a store failure never blocks analysis.
		if hint, err := a.patterns.FindBestPattern(ctx, taskType); err == nil && hint != nil {
			analysis.PatternHint = hint
		}
	}
	return analysis
}

func (a *Analyzer) classify(description string) models.TaskType {
	for _, m := range a.matchers {
		for _, p := range m.patterns {
			if p.MatchString(description) {
				return m.taskType
			}
		}
	}
	return models.TypeGeneric
}

// complexity is a weighted sum of description length and difficulty
// keywords, clipped to [1,10].
func (a *Analyzer) complexity(description string) int {
	score := 1 + len(description)/80
	for _, p := range a.complexityPatterns {
		if p.MatchString(description) {
			score += 2
		}
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func (a *Analyzer) dependencies(description string) []string {
	var deps []string
	for name, p := range a.dependencyPatterns {
		if p.MatchString(description) {
			deps = append(deps, name)
		}
	}
	// Map iteration order is random; keep output stable for callers.
	sort.Strings(deps)
	return deps
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// RolesFor returns the canonical role roster for a task type.
func RolesFor(taskType models.TaskType) []models.Role {
	return append([]models.Role(nil), typeRoles[taskType]...)
}
