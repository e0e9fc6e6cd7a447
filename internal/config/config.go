// Package config loads catalog configuration from the environment, a local
// dotenv file and the user's config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath                string `yaml:"db_path"`
	DefaultActor          string `yaml:"default_actor"`
	DefaultCategory       string `yaml:"default_category"`
	MainlineStateForUsers bool   `yaml:"mainline_state_for_users"`
	NotifyQueueSize       int    `yaml:"notify_queue_size"`
	NotifyWorkers         int    `yaml:"notify_workers"`
	LogLevel              string `yaml:"log_level"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/catreg/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		DefaultCategory: "Default_Category",
		LogLevel:        "info",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional.
	_ = loadYAMLConfig(cfg)

	// Override with environment variables
	if dbPath := os.Getenv("CATREG_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if actor := os.Getenv("CATREG_ACTOR"); actor != "" {
		cfg.DefaultActor = actor
	}
	if category := os.Getenv("CATREG_DEFAULT_CATEGORY"); category != "" {
		cfg.DefaultCategory = category
	}
	if v := os.Getenv("CATREG_MAINLINE_STATE_FOR_USERS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATREG_MAINLINE_STATE_FOR_USERS: %w", err)
		}
		cfg.MainlineStateForUsers = enabled
	}
	if v := os.Getenv("CATREG_NOTIFY_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATREG_NOTIFY_QUEUE_SIZE: %w", err)
		}
		cfg.NotifyQueueSize = n
	}
	if v := os.Getenv("CATREG_NOTIFY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATREG_NOTIFY_WORKERS: %w", err)
		}
		cfg.NotifyWorkers = n
	}
	if logLevel := os.Getenv("CATREG_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".local", "share", "catreg", "catreg.db")
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/catreg/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "catreg", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		if dir == homeDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Actor returns the acting user's email from environment or config.
func (c *Config) Actor() string {
	if actor := os.Getenv("CATREG_ACTOR"); actor != "" {
		return actor
	}
	return c.DefaultActor
}
