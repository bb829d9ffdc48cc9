package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends understood by the store factory
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendPostgREST = "postgrest"
)

const (
	DefaultTable     = "notes"
	DefaultSaveDelay = 500 * time.Millisecond
	DefaultTheme     = "dark"
)

// Config holds the unified application configuration
type Config struct {
	Backend     string
	URL         string // PostgREST/Supabase endpoint
	Key         string // PostgREST/Supabase API key
	DatabaseURL string // Postgres connection string
	SQLitePath  string
	Table       string
	SaveDelay   time.Duration
	Theme       string
	LogLevel    string
	Dir         string // config directory, also holds debug.log
}

// Settings represents the config file structure
type Settings struct {
	Backend     string `yaml:"backend,omitempty"`
	URL         string `yaml:"url,omitempty"`
	Key         string `yaml:"key,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	Table       string `yaml:"table,omitempty"`
	SaveDelay   string `yaml:"save_delay,omitempty"`
	Theme       string `yaml:"theme,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
}

// CLIFlags holds parsed CLI flags
type CLIFlags struct {
	ConfigPath  string
	Backend     string
	URL         string
	Key         string
	DatabaseURL string
	Theme       string
}

// Load loads configuration with priority: CLI flags > env vars (.env included) > config file > default
func Load(flags CLIFlags) (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(dir, "notes.db"),
		Table:      DefaultTable,
		SaveDelay:  DefaultSaveDelay,
		Theme:      DefaultTheme,
		LogLevel:   "info",
		Dir:        dir,
	}

	// Config file first for base values
	configPath := flags.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(dir, "config.yaml")
	}
	if fileConfig, err := loadConfigFile(configPath); err == nil {
		if err := cfg.apply(*fileConfig); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	// Priority 2: environment, with .env filling in unset variables
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.apply(settingsFromEnv()); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	// Priority 1: CLI flags override everything
	if err := cfg.apply(Settings{
		Backend:     flags.Backend,
		URL:         flags.URL,
		Key:         flags.Key,
		DatabaseURL: flags.DatabaseURL,
		Theme:       flags.Theme,
	}); err != nil {
		return nil, err
	}

	cfg.SQLitePath = expandPath(cfg.SQLitePath)

	return cfg, nil
}

// apply overrides every non-empty field of s
func (c *Config) apply(s Settings) error {
	if s.Backend != "" {
		c.Backend = strings.ToLower(s.Backend)
	}
	if s.URL != "" {
		c.URL = strings.TrimRight(s.URL, "/")
	}
	if s.Key != "" {
		c.Key = s.Key
	}
	if s.DatabaseURL != "" {
		c.DatabaseURL = s.DatabaseURL
	}
	if s.SQLitePath != "" {
		c.SQLitePath = s.SQLitePath
	}
	if s.Table != "" {
		c.Table = s.Table
	}
	if s.SaveDelay != "" {
		d, err := time.ParseDuration(s.SaveDelay)
		if err != nil {
			return fmt.Errorf("invalid save_delay %q: %w", s.SaveDelay, err)
		}
		c.SaveDelay = d
	}
	if s.Theme != "" {
		c.Theme = strings.ToLower(s.Theme)
	}
	if s.LogLevel != "" {
		c.LogLevel = s.LogLevel
	}
	return nil
}

func settingsFromEnv() Settings {
	return Settings{
		Backend:     os.Getenv("NOTELY_BACKEND"),
		URL:         os.Getenv("NOTELY_URL"),
		Key:         os.Getenv("NOTELY_KEY"),
		DatabaseURL: os.Getenv("NOTELY_DATABASE_URL"),
		SQLitePath:  os.Getenv("NOTELY_SQLITE_PATH"),
		Table:       os.Getenv("NOTELY_TABLE"),
		SaveDelay:   os.Getenv("NOTELY_SAVE_DELAY"),
		Theme:       os.Getenv("NOTELY_THEME"),
		LogLevel:    os.Getenv("NOTELY_LOG_LEVEL"),
	}
}

// Validate checks that the selected backend has its connection parameters
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend requires sqlite_path")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("postgres backend requires database_url (NOTELY_DATABASE_URL)")
		}
	case BackendPostgREST:
		if c.URL == "" || c.Key == "" {
			return errors.New("postgrest backend requires url and key (NOTELY_URL, NOTELY_KEY)")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SaveDelay <= 0 {
		return fmt.Errorf("save_delay must be positive, got %s", c.SaveDelay)
	}
	if c.Theme != "dark" && c.Theme != "light" {
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// GetConfigDir returns the directory holding config.yaml, notes.db and debug.log
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "notely"), nil
}

// loadConfigFile loads configuration from the settings file
func loadConfigFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	return &settings, nil
}

// EnsureConfigFile creates the config file with defaults if it doesn't exist
func EnsureConfigFile() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	settings := Settings{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(dir, "notes.db"),
		Table:      DefaultTable,
		SaveDelay:  DefaultSaveDelay.String(),
		Theme:      DefaultTheme,
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
