package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/pkg/models"
)

var (
	analyzePriority    string
	analyzeConstraints []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <objective text>",
	Short: "Classify an objective and build its task graph",
	Long: `Analyze a free-text objective: classify its task type, estimate
complexity, pick the required agent roles, and expand it into a
dependency-aware task graph. The analysis and graph are persisted
keyed by the printed objective id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzePriority, "priority", "p", "medium", "Objective priority (low, medium, high, critical)")
	analyzeCmd.Flags().StringArrayVarP(&analyzeConstraints, "constraint", "c", nil, "Constraint on execution (repeatable)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	coord := newCoordinator(cfg, store, nil)
	defer coord.Shutdown(context.Background())

	obj := newObjective(strings.Join(args, " "), analyzePriority, analyzeConstraints)
	analysis, err := coord.AnalyzeObjective(context.Background(), obj)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("Objective %s\n", obj.ID)
	fmt.Printf("  %s\n\n", obj.Description)
	fmt.Printf("  type:       %s\n", color.CyanString(string(analysis.Type)))
	fmt.Printf("  complexity: %d/10\n", analysis.EstimatedComplexity)
	fmt.Printf("  roles:      %s\n", rolesString(analysis.RequiredCapabilities))
	if len(analysis.Dependencies) > 0 {
		fmt.Printf("  external:   %s\n", strings.Join(analysis.Dependencies, ", "))
	}
	if analysis.PatternHint != nil {
		fmt.Printf("  history:    %.0f%% success with %s\n",
			analysis.PatternHint.SuccessRate*100, rolesString(analysis.PatternHint.AgentSequence))
	}

	tasks, err := coord.Tasks(obj.ID)
	if err != nil {
		return err
	}
	fmt.Println()
	bold.Printf("Tasks (%d)\n", len(tasks))
	for _, task := range tasks {
		deps := ""
		if len(task.DependsOn) > 0 {
			deps = color.HiBlackString(" (after %s)", strings.Join(task.DependsOn, ", "))
		}
		fmt.Printf("  %s  %s%s\n", color.YellowString(task.ID), task.Content, deps)
	}
	return nil
}

// newObjective builds an objective record from CLI arguments.
func newObjective(description, priority string, constraints []string) *models.Objective {
	return &models.Objective{
		ID:          "obj-" + uuid.New().String()[:8],
		Description: description,
		Priority:    models.Priority(priority),
		Constraints: constraints,
		CreatedAt:   time.Now(),
	}
}

func rolesString(roles []models.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}
