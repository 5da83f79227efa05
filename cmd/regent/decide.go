package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
)

var decideCmd = &cobra.Command{
	Use:   "decide <objective text> <option> <option>...",
	Short: "Score candidate actions against historical patterns",
	Long: `Analyze the objective, then score each candidate option against
historical outcome patterns and keyword overlap with the objective.
Prints the chosen option, its confidence, and the reasoning. The
decision is recorded for future scoring.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
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
	obj := newObjective(args[0], "medium", nil)
	if _, err := coord.AnalyzeObjective(ctx, obj); err != nil {
		return err
	}

	options := args[1:]
	d, err := coord.MakeDecision(ctx, obj.ID, options)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("Decision %s\n", d.ID)
	for _, opt := range d.Options {
		marker := " "
		if opt == d.Chosen {
			marker = color.GreenString("▸")
		}
		fmt.Printf("  %s %s\n", marker, opt)
	}
	fmt.Printf("\n  chosen:     %s\n", color.GreenString(d.Chosen))
	fmt.Printf("  confidence: %.2f\n", d.Confidence)
	fmt.Printf("  reasoning:  %s\n", d.Reasoning)
	return nil
}
