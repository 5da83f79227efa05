package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <objective-id>",
	Short: "Show the persisted state of an objective",
	Long: `Display the persisted analysis and task statuses for an objective
by id. Works across processes: it reads the pattern store snapshot
written by analyze/spawn/watch.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	objectiveID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	analysisJSON, ok, err := store.Get(ctx, fmt.Sprintf("objective:%s:analysis", objectiveID))
	if err != nil {
		return fmt.Errorf("read analysis: %w", err)
	}
	if !ok {
		fmt.Printf("No objective %s found. Run 'regent analyze <objective>' first.\n", objectiveID)
		return nil
	}
	var analysis models.TaskAnalysis
	if err := json.Unmarshal(analysisJSON, &analysis); err != nil {
		return fmt.Errorf("decode analysis: %w", err)
	}

	tasksJSON, ok, err := store.Get(ctx, fmt.Sprintf("objective:%s:tasks", objectiveID))
	if err != nil {
		return fmt.Errorf("read tasks: %w", err)
	}
	var tasks []*models.Task
	if ok {
		if err := json.Unmarshal(tasksJSON, &tasks); err != nil {
			return fmt.Errorf("decode tasks: %w", err)
		}
	}

	bold := color.New(color.Bold)
	bold.Printf("Objective %s\n", objectiveID)
	fmt.Printf("  type: %s  complexity: %d/10  roles: %s\n\n",
		analysis.Type, analysis.EstimatedComplexity, rolesString(analysis.RequiredCapabilities))

	counts := make(map[models.TaskStatus]int)
	for _, task := range tasks {
		counts[task.Status]++
	}
	fmt.Printf("  %s %d  %s %d  %s %d  %s %d  %s %d\n\n",
		color.HiBlackString("pending"), counts[models.TaskStatusPending],
		color.YellowString("in_progress"), counts[models.TaskStatusInProgress],
		color.GreenString("completed"), counts[models.TaskStatusCompleted],
		color.RedString("failed"), counts[models.TaskStatusFailed],
		color.MagentaString("cancelled"), counts[models.TaskStatusCancelled])

	for _, task := range tasks {
		fmt.Printf("  %s %s  %s", statusSymbol(task.Status), color.YellowString(task.ID), task.Content)
		if task.AssignedTo != "" {
			fmt.Printf(" %s", color.HiBlackString("@%s", task.AssignedTo))
		}
		if task.Error != "" {
			fmt.Printf("\n      %s", color.RedString(task.Error))
		}
		fmt.Println()
	}
	return nil
}

func statusSymbol(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusCompleted:
		return color.GreenString("✓")
	case models.TaskStatusFailed:
		return color.RedString("✗")
	case models.TaskStatusInProgress:
		return color.YellowString("▸")
	case models.TaskStatusCancelled:
		return color.MagentaString("⊘")
	default:
		return color.HiBlackString("·")
	}
}
