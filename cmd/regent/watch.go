package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/internal/taskgraph"
	"github.com/apiarylabs/regent/internal/tui"
)

var watchPriority string

var watchCmd = &cobra.Command{
	Use:   "watch <objective text>",
	Short: "Run an objective end to end with a live progress view",
	Long: `Analyze the objective, spawn agents, execute the tasks with a local
worker, and show live progress: overall completion, per-agent
percentages, and blocking issues. With a configured generation
backend and platform, tasks produce and persist real artifacts;
otherwise execution is simulated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchPriority, "priority", "p", "medium", "Objective priority (low, medium, high, critical)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Watch sessions are long-lived, so template overrides hot-reload while
	// the view is up.
	templates := taskgraph.NewTemplateSet()
	if cfg.Coordinator.TemplateOverrides != "" {
		watcher, err := taskgraph.NewWatcher(templates, cfg.Coordinator.TemplateOverrides)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: template overrides: %v\n", err)
		} else {
			defer watcher.Close()
		}
	}

	coord := newCoordinator(cfg, store, templates)
	defer coord.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obj := newObjective(strings.Join(args, " "), watchPriority, nil)
	if _, err := coord.AnalyzeObjective(ctx, obj); err != nil {
		return err
	}
	if _, err := coord.SpawnAgents(ctx, obj.ID); err != nil {
		return err
	}

	worker := newLocalWorker(cfg, coord, obj.ID)
	go worker.run(ctx)

	if err := tui.Run(coord, obj.ID, cfg.TUI.RefreshRate); err != nil {
		return err
	}

	report, err := coord.MonitorProgress(ctx, obj.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nObjective %s finished at %.1f%%\n", color.New(color.Bold).Sprint(obj.ID), report.Overall)
	for _, issue := range report.BlockingIssues {
		fmt.Printf("  %s %s\n", color.RedString("!"), issue)
	}
	return nil
}
