package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears NOTELY_* variables
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"NOTELY_BACKEND", "NOTELY_URL", "NOTELY_KEY", "NOTELY_DATABASE_URL",
		"NOTELY_SQLITE_PATH", "NOTELY_TABLE", "NOTELY_SAVE_DELAY", "NOTELY_THEME", "NOTELY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "notely")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
}

func TestLoad_Default(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(CLIFlags{})
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(home, ".config", "notely", "notes.db"), cfg.SQLitePath)
	assert.Equal(t, "notes", cfg.Table)
	assert.Equal(t, 500*time.Millisecond, cfg.SaveDelay)
	assert.Equal(t, "dark", cfg.Theme)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "backend: postgrest\nurl: https://example.supabase.co/\nkey: anon\nsave_delay: 1s\ntheme: light\n")

	cfg, err := Load(CLIFlags{})
	require.NoError(t, err)

	assert.Equal(t, BackendPostgREST, cfg.Backend)
	assert.Equal(t, "https://example.supabase.co", cfg.URL)
	assert.Equal(t, "anon", cfg.Key)
	assert.Equal(t, time.Second, cfg.SaveDelay)
	assert.Equal(t, "light", cfg.Theme)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "backend: postgrest\ntheme: light\n")
	t.Setenv("NOTELY_BACKEND", "memory")
	t.Setenv("NOTELY_SAVE_DELAY", "250ms")

	cfg, err := Load(CLIFlags{})
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDelay)
	assert.Equal(t, "light", cfg.Theme)
}

func TestLoad_CLIFlags(t *testing.T) {
	isolate(t)
	t.Setenv("NOTELY_BACKEND", "memory")

	cfg, err := Load(CLIFlags{Backend: "Postgres", DatabaseURL: "postgres://localhost/notes"})
	require.NoError(t, err)

	// CLI flags should override env vars
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/notes", cfg.DatabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitConfigPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("table: scratch\nsqlite_path: ~/scratch.db\n"), 0644))

	cfg, err := Load(CLIFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "scratch", cfg.Table)
	homeDir, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(homeDir, "scratch.db"), cfg.SQLitePath)
}

func TestLoad_InvalidSaveDelay(t *testing.T) {
	isolate(t)
	t.Setenv("NOTELY_SAVE_DELAY", "soon")

	_, err := Load(CLIFlags{})
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "backend: [unclosed\n")

	_, err := Load(CLIFlags{})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Backend: BackendMemory, SaveDelay: time.Second, Theme: "dark"}, false},
		{"postgrest missing key", Config{Backend: BackendPostgREST, URL: "http://x", SaveDelay: time.Second, Theme: "dark"}, true},
		{"postgres missing url", Config{Backend: BackendPostgres, SaveDelay: time.Second, Theme: "dark"}, true},
		{"unknown backend", Config{Backend: "redis", SaveDelay: time.Second, Theme: "dark"}, true},
		{"zero delay", Config{Backend: BackendMemory, Theme: "dark"}, true},
		{"bad theme", Config{Backend: BackendMemory, SaveDelay: time.Second, Theme: "sepia"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnsureConfigFile(t *testing.T) {
	home := isolate(t)

	require.NoError(t, EnsureConfigFile())
	path := filepath.Join(home, ".config", "notely", "config.yaml")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "save_delay: 500ms")

	// Second call leaves the file alone
	require.NoError(t, os.WriteFile(path, []byte("theme: light\n"), 0644))
	require.NoError(t, EnsureConfigFile())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme: light\n", string(data))
}
