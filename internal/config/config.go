// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// BigQuery record store
	BigQueryProject string
	BigQueryDataset string

	// Conversation store
	ChatDBPath string

	// Generation service
	GeminiModel     string
	GenerateTimeout time.Duration

	// Optional transcript archive; empty disables archiving
	ArchiveBucket string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		BigQueryProject: getEnv("BQ_PROJECT", ""),
		BigQueryDataset: getEnv("BQ_DATASET", "finance"),

		ChatDBPath: getEnv("CHAT_DB_PATH", "./data/chat.db"),

		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GenerateTimeout: getEnvDuration("GENERATE_TIMEOUT", 30*time.Second),

		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.BigQueryProject == "" {
		errs = append(errs, "BQ_PROJECT is required")
	}
	if c.BigQueryDataset == "" {
		errs = append(errs, "BQ_DATASET cannot be empty")
	}

	if c.ChatDBPath == "" {
		errs = append(errs, "chat database path cannot be empty")
	} else if dir := filepath.Dir(c.ChatDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create chat database directory '%s': %v", dir, err))
			}
		}
	}

	if c.GeminiModel == "" {
		errs = append(errs, "Gemini model name cannot be empty")
	}

	if c.GenerateTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid generate timeout %v: must be at least 1 second", c.GenerateTimeout))
	} else if c.GenerateTimeout > 5*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid generate timeout %v: must be at most 5 minutes", c.GenerateTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
