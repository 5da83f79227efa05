// Package config handles configuration loading and management for Regent.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for Regent.
type Config struct {
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Memory      MemoryConfig      `mapstructure:"memory"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	Backend     BackendConfig     `mapstructure:"backend"`
	TUI         TUIConfig         `mapstructure:"tui"`
}

// CoordinatorConfig holds coordinator behavior settings.
type CoordinatorConfig struct {
	// MaxConcurrentAgents caps concurrently active agents per objective.
	MaxConcurrentAgents int `mapstructure:"max_concurrent_agents"`
	// AutoSpawn spawns agents immediately after analysis.
	AutoSpawn bool `mapstructure:"auto_spawn"`
	// StaleTaskThreshold is how long an in_progress task may sit before it
	// is reported as stale.
	StaleTaskThreshold time.Duration `mapstructure:"stale_task_threshold"`
	// TemplateOverrides is an optional path to a YAML task-template file.
	TemplateOverrides string `mapstructure:"template_overrides"`
}

// MemoryConfig holds pattern store settings.
type MemoryConfig struct {
	// DBPath is the SQLite database location. Empty uses the default
	// under the user data directory.
	DBPath string `mapstructure:"db_path"`
}

// PlatformConfig holds target platform API settings.
type PlatformConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// BackendConfig holds artifact generation backend settings.
type BackendConfig struct {
	// Model is the Claude model name. Empty uses the SDK default.
	Model string `mapstructure:"model"`
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string `mapstructure:"api_key"`
	// UseAWSBedrock routes requests through AWS Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the AWS region for Bedrock.
	AWSRegion string `mapstructure:"aws_region"`
}

// TUIConfig holds watch view display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, REGENT_*)
// 2. Project config (.regent.yaml in current directory or parent)
// 3. User config (~/.config/regent/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("REGENT")
	v.AutomaticEnv()

	v.BindEnv("backend.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("platform.api_key", "REGENT_PLATFORM_API_KEY")
	v.BindEnv("platform.base_url", "REGENT_PLATFORM_BASE_URL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Backend.APIKey = expandEnv(cfg.Backend.APIKey)
	cfg.Platform.APIKey = expandEnv(cfg.Platform.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Backend.APIKey = expandEnv(cfg.Backend.APIKey)
	cfg.Platform.APIKey = expandEnv(cfg.Platform.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("coordinator.max_concurrent_agents", cfg.Coordinator.MaxConcurrentAgents)
	v.Set("coordinator.auto_spawn", cfg.Coordinator.AutoSpawn)
	v.Set("coordinator.stale_task_threshold", cfg.Coordinator.StaleTaskThreshold.String())
	v.Set("coordinator.template_overrides", cfg.Coordinator.TemplateOverrides)
	v.Set("memory.db_path", cfg.Memory.DBPath)
	v.Set("platform.base_url", cfg.Platform.BaseURL)
	v.Set("platform.api_key", cfg.Platform.APIKey)
	v.Set("backend.model", cfg.Backend.Model)
	v.Set("backend.api_key", cfg.Backend.APIKey)
	v.Set("backend.use_aws_bedrock", cfg.Backend.UseAWSBedrock)
	v.Set("backend.aws_region", cfg.Backend.AWSRegion)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Coordinator defaults
	v.SetDefault("coordinator.max_concurrent_agents", 4)
	v.SetDefault("coordinator.auto_spawn", false)
	v.SetDefault("coordinator.stale_task_threshold", "10m")
	v.SetDefault("coordinator.template_overrides", "")

	// Memory defaults
	v.SetDefault("memory.db_path", "")

	// Platform defaults
	v.SetDefault("platform.base_url", "")
	v.SetDefault("platform.api_key", "")

	// Backend defaults
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.use_aws_bedrock", false)
	v.SetDefault("backend.aws_region", "")

	// TUI defaults
	v.SetDefault("tui.refresh_rate", "500ms")
}

// getUserConfigDir returns the XDG config directory for Regent.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "regent")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "regent")
	}
	return filepath.Join(home, ".config", "regent")
}

// findProjectConfig searches for .regent.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".regent.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{
			MaxConcurrentAgents: 4,
			StaleTaskThreshold:  10 * time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 500 * time.Millisecond,
		},
	}
}
