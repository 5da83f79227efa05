package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
)

var spawnPriority string

var spawnCmd = &cobra.Command{
	Use:   "spawn <objective text>",
	Short: "Analyze an objective and spawn agents for it",
	Long: `Analyze the objective, compute an execution plan, and spawn
capability-matched agents for the first wave. Prints the spawned
agents and the full wave plan.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVarP(&spawnPriority, "priority", "p", "medium", "Objective priority (low, medium, high, critical)")
}

func runSpawn(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	obj := newObjective(strings.Join(args, " "), spawnPriority, nil)
	if _, err := coord.AnalyzeObjective(ctx, obj); err != nil {
		return err
	}
	agents, err := coord.SpawnAgents(ctx, obj.ID)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("Objective %s\n\n", obj.ID)
	bold.Printf("Agents (%d)\n", len(agents))
	for _, agent := range agents {
		fmt.Printf("  %s  %s  [%s]\n",
			color.GreenString(agent.ID), agent.Status, strings.Join(agent.Capabilities, " "))
	}

	plan, err := coord.Plan(obj.ID)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	fmt.Println()
	mode := "sequential"
	if plan.Parallel {
		mode = "parallel"
	}
	bold.Printf("Execution plan (%s, %d wave(s), %d task(s))\n", mode, len(plan.Waves), plan.TaskCount())
	for i, wave := range plan.Waves {
		fmt.Printf("  wave %d:\n", i+1)
		for _, slot := range wave.Slots {
			fmt.Printf("    %s -> %s\n", color.CyanString(string(slot.Role)), strings.Join(slot.TaskIDs, ", "))
		}
	}
	return nil
}
