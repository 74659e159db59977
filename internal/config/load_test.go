package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every CARDBOX_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"CONFIG", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "SHELL_PROMPT", "RANDOM_SEED"} {
		key := envPrefix + name
		if old, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func parseFlags(t *testing.T, args ...string) *Config {
	t.Helper()
	f := NewFlagSet("test")
	require.NoError(t, f.Parse(args))
	cfg, err := Load(f)
	require.NoError(t, err, "Load() should not return an error")
	require.NotNil(t, cfg)
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := parseFlags(t)
	assert.Equal(t, "cardbox.db", cfg.DB.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "> ", cfg.Shell.Prompt)
	assert.Equal(t, uint64(0), cfg.Random.Seed)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARDBOX_DB_PATH", "/tmp/env.db")
	t.Setenv("CARDBOX_LOG_LEVEL", "debug")
	t.Setenv("CARDBOX_RANDOM_SEED", "99")

	cfg := parseFlags(t)
	assert.Equal(t, "/tmp/env.db", cfg.DB.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(99), cfg.Random.Seed)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their defaults")
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cardbox.yaml", `
db:
  path: /tmp/file.db
log:
  level: info
  format: json
shell:
  prompt: "cards> "
`)
	t.Setenv("CARDBOX_LOG_LEVEL", "error")

	cfg := parseFlags(t, "--config", path, "--db", "/tmp/flag.db")
	assert.Equal(t, "/tmp/flag.db", cfg.DB.Path, "flags override the file")
	assert.Equal(t, "error", cfg.Log.Level, "environment overrides the file")
	assert.Equal(t, "json", cfg.Log.Format, "file overrides defaults")
	assert.Equal(t, "cards> ", cfg.Shell.Prompt)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cardbox.yaml", "db:\n  path: /tmp/from-env-file.db\n")
	t.Setenv("CARDBOX_CONFIG", path)

	cfg := parseFlags(t)
	assert.Equal(t, "/tmp/from-env-file.db", cfg.DB.Path)
}

func TestLoadIgnoresCallerFlags(t *testing.T) {
	clearEnv(t)
	f := NewFlagSet("test")
	f.String("question", "", "")
	require.NoError(t, f.Parse([]string{"--question", "2+2=?", "add"}))

	cfg, err := Load(f)
	require.NoError(t, err)
	assert.Equal(t, "cardbox.db", cfg.DB.Path)
	assert.Equal(t, []string{"add"}, f.Args())
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "invalid log level", args: []string{"--log-level", "loud"}},
		{name: "invalid log format", env: map[string]string{"CARDBOX_LOG_FORMAT": "xml"}},
		{name: "empty database path", args: []string{"--db", ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			f := NewFlagSet("test")
			require.NoError(t, f.Parse(tc.args))

			cfg, err := Load(f)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "config validation failed")
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	f := NewFlagSet("test")
	require.NoError(t, f.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))

	_, err := Load(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "CARDBOX_SHELL_PROMPT=dotenv> \n")
	t.Cleanup(func() { os.Unsetenv("CARDBOX_SHELL_PROMPT") })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"), path))

	cfg := parseFlags(t)
	assert.Equal(t, "dotenv>", cfg.Shell.Prompt)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "db.path", envKey("CARDBOX_DB_PATH"))
	assert.Equal(t, "shell.prompt", envKey("CARDBOX_SHELL_PROMPT"))
}
