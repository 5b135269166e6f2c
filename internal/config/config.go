package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Token          string   `yaml:"token"`
	StoreBackend   string   `yaml:"store_backend"`
	StoreDir       string   `yaml:"store_dir"`
	DBPath         string   `yaml:"db_path"`
	LogLevel       string   `yaml:"log_level"`
	Output         string   `yaml:"output"`
	IgnorePrefixes []string `yaml:"ignore_prefixes"`
	IgnoreChannels []string `yaml:"ignore_channels"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/guildsnap/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: "file",
		LogLevel:     "info",
		Output:       "table",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Load ~/.config/guildsnap/config.yaml if it exists
	if err := loadYAMLConfig(cfg); err != nil {
		// YAML config is optional, so we don't fail if it doesn't exist
	}

	// Override with environment variables
	if token := getEnvOrFile("GUILDSNAP_TOKEN", "GUILDSNAP_TOKEN_FILE"); token != "" {
		cfg.Token = token
	}
	if backend := os.Getenv("GUILDSNAP_STORE_BACKEND"); backend != "" {
		cfg.StoreBackend = backend
	}
	if dir := os.Getenv("GUILDSNAP_STORE_DIR"); dir != "" {
		cfg.StoreDir = dir
	}
	if dbPath := os.Getenv("GUILDSNAP_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel := os.Getenv("GUILDSNAP_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if output := os.Getenv("GUILDSNAP_OUTPUT"); output != "" {
		cfg.Output = output
	}
	if prefixes := os.Getenv("GUILDSNAP_IGNORE_PREFIXES"); prefixes != "" {
		cfg.IgnorePrefixes = splitList(prefixes)
	}
	if channels := os.Getenv("GUILDSNAP_IGNORE_CHANNELS"); channels != "" {
		cfg.IgnoreChannels = splitList(channels)
	}

	// Set defaults if not configured
	if cfg.StoreDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.StoreDir = filepath.Join(homeDir, ".local", "share", "guildsnap", "snapshots")
	}
	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".local", "share", "guildsnap", "guildsnap.db")
	}

	if cfg.StoreBackend != "file" && cfg.StoreBackend != "sqlite" {
		return nil, fmt.Errorf("unknown store backend %q (want file or sqlite)", cfg.StoreBackend)
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from ~/.config/guildsnap/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "guildsnap", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
