package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/internal/coordinator"
	"github.com/apiarylabs/regent/internal/memory"
	"github.com/apiarylabs/regent/internal/taskgraph"
)

var rootCmd = &cobra.Command{
	Use:   "regent",
	Short: "Objective Decomposition & Agent Coordination Engine",
	Long: `Regent turns free-text objectives into dependency-aware task graphs,
spawns capability-matched logical agents, plans bounded-concurrency
execution waves, and tracks progress and blocking conditions.

Typical flow:
  regent analyze "create a widget to show open incidents"
  regent spawn   "create a widget to show open incidents"
  regent watch   "create a widget to show open incidents"
  regent status  <objective-id>`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(spawnCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// openStore opens the pattern store at the configured or default location.
func openStore(cfg *config.Config) (*memory.SQLiteStore, error) {
	dbPath := cfg.Memory.DBPath
	if dbPath == "" {
		dbPath = memory.DefaultDBPath()
	}
	store, err := memory.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open pattern store: %w", err)
	}
	return store, nil
}

// newTemplates loads the template set with any configured override file.
func newTemplates(cfg *config.Config) *taskgraph.TemplateSet {
	templates := taskgraph.NewTemplateSet()
	if cfg.Coordinator.TemplateOverrides != "" {
		if err := templates.LoadOverrides(cfg.Coordinator.TemplateOverrides); err != nil {
			fmt.Fprintf(os.Stderr, "warning: template overrides: %v\n", err)
		}
	}
	return templates
}

// newCoordinator wires a coordinator from the loaded configuration.
func newCoordinator(cfg *config.Config, store memory.Store, templates *taskgraph.TemplateSet) *coordinator.Coordinator {
	if templates == nil {
		templates = newTemplates(cfg)
	}
	return coordinator.New(store, templates, coordinator.Options{
		MaxConcurrentAgents: cfg.Coordinator.MaxConcurrentAgents,
		AutoSpawn:           cfg.Coordinator.AutoSpawn,
		StaleThreshold:      cfg.Coordinator.StaleTaskThreshold,
	}, coordinator.DefaultLogger())
}
