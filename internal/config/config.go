// Package config handles configuration loading for tally.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for tally.
type Config struct {
	Provider   string           `mapstructure:"provider"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Approvals  ApprovalsConfig  `mapstructure:"approvals"`
	Review     ReviewConfig     `mapstructure:"review"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Log        LogConfig        `mapstructure:"log"`
	Stream     StreamConfig     `mapstructure:"stream"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	UseAWSBedrock bool   `mapstructure:"use_aws_bedrock"`
	AWSRegion     string `mapstructure:"aws_region"`
	AWSProfile    string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// CheckpointConfig selects where suspended threads persist.
type CheckpointConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `mapstructure:"backend"`
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
}

// ApprovalsConfig controls which capabilities suspend for human approval.
type ApprovalsConfig struct {
	// Sensitive lists gated capability names.
	Sensitive []string `mapstructure:"sensitive"`
	// DecisionsDir is watched for decision files during non-interactive resume.
	DecisionsDir string `mapstructure:"decisions_dir"`
}

// ReviewConfig controls the structural revision of dispatched batches.
type ReviewConfig struct {
	// Monitored is the agent whose dispatches are reviewed.
	Monitored string `mapstructure:"monitored"`
	// MaxRejections bounds consecutive rejections before a run fails.
	MaxRejections int `mapstructure:"max_rejections"`
}

// PlannerConfig controls the reflexion planning pass.
type PlannerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// MaxCritiques bounds critic rounds before the plan is forced through.
	MaxCritiques int `mapstructure:"max_critiques"`
}

// LogConfig holds debug logging settings.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// StreamConfig holds websocket event streaming settings.
type StreamConfig struct {
	// Addr is the listen address for the event stream, empty to disable.
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TALLY_*, ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 2. Project config (.tally.yaml in current directory or parent)
// 3. User config (~/.config/tally/config.yaml)
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
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("provider", "TALLY_PROVIDER")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "TALLY_ANTHROPIC_MODEL")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "TALLY_OPENAI_MODEL")
	v.BindEnv("checkpoint.backend", "TALLY_CHECKPOINT_BACKEND")
	v.BindEnv("checkpoint.path", "TALLY_CHECKPOINT_PATH")
	v.BindEnv("log.path", "TALLY_LOG_PATH")
	v.BindEnv("stream.addr", "TALLY_STREAM_ADDR")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = os.ExpandEnv(cfg.OpenAI.APIKey)
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

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	cfg.OpenAI.APIKey = os.ExpandEnv(cfg.OpenAI.APIKey)
	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "anthropic")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.use_aws_bedrock", false)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "")

	v.SetDefault("checkpoint.backend", "sqlite")
	v.SetDefault("checkpoint.path", defaultCheckpointPath())

	v.SetDefault("approvals.sensitive", []string{"send_email", "generate_invoice"})
	v.SetDefault("approvals.decisions_dir", "")

	v.SetDefault("review.monitored", "query")
	v.SetDefault("review.max_rejections", 5)

	v.SetDefault("planner.enabled", false)
	v.SetDefault("planner.max_critiques", 3)

	v.SetDefault("log.path", "")
	v.SetDefault("stream.addr", "")
}

// getUserConfigDir returns the XDG config directory for tally.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tally")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tally")
	}
	return filepath.Join(home, ".config", "tally")
}

// defaultCheckpointPath returns the XDG state location for the thread store.
func defaultCheckpointPath() string {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "tally", "threads.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tally", "threads.db")
	}
	return filepath.Join(home, ".local", "state", "tally", "threads.db")
}

// findProjectConfig searches for .tally.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tally.yaml")
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
