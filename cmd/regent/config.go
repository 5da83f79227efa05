package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/regent/internal/config"
	"github.com/apiarylabs/regent/internal/memory"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Println("Config files")
	fmt.Printf("  user:    %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Printf("  project: %s\n", p)
	}

	dbPath := cfg.Memory.DBPath
	if dbPath == "" {
		dbPath = memory.DefaultDBPath()
	}

	fmt.Println()
	bold.Println("Coordinator")
	fmt.Printf("  max_concurrent_agents: %d\n", cfg.Coordinator.MaxConcurrentAgents)
	fmt.Printf("  auto_spawn:            %t\n", cfg.Coordinator.AutoSpawn)
	fmt.Printf("  stale_task_threshold:  %s\n", cfg.Coordinator.StaleTaskThreshold)
	if cfg.Coordinator.TemplateOverrides != "" {
		fmt.Printf("  template_overrides:    %s\n", cfg.Coordinator.TemplateOverrides)
	}

	fmt.Println()
	bold.Println("Memory")
	fmt.Printf("  db_path: %s\n", dbPath)

	fmt.Println()
	bold.Println("Backend")
	fmt.Printf("  model:           %s\n", orUnset(cfg.Backend.Model))
	fmt.Printf("  api_key:         %s\n", redacted(cfg.Backend.APIKey))
	fmt.Printf("  use_aws_bedrock: %t\n", cfg.Backend.UseAWSBedrock)

	fmt.Println()
	bold.Println("Platform")
	fmt.Printf("  base_url: %s\n", orUnset(cfg.Platform.BaseURL))
	fmt.Printf("  api_key:  %s\n", redacted(cfg.Platform.APIKey))
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return color.HiBlackString("(unset)")
	}
	return s
}

func redacted(s string) string {
	if s == "" {
		return color.HiBlackString("(unset)")
	}
	return "****"
}
