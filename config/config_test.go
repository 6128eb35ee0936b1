package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the LIBRARY_* variables; Load ignores empty values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDataDir, EnvBackend, EnvLogLevel, EnvLogFormat} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "library.yaml", "data_dir: /var/lib/library\nbackend: sqlite\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/library", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "library.yaml", "data_dir: from-yaml\nbackend: sqlite\nlog_level: info\n")
	t.Setenv(EnvDataDir, "from-env")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.NoError(t, cfg.Override("from-flag", "", "error"))
	assert.Equal(t, "from-flag", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeFile(t, "bad.yaml", "backend: [file"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv(EnvBackend, "postgres")
	_, err = Load("")
	assert.ErrorContains(t, err, "backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"sqlite", func(c *Config) { c.Backend = "sqlite" }, true},
		{"json logs", func(c *Config) { c.LogFormat = "JSON" }, true},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"empty data dir", func(c *Config) { c.DataDir = " " }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if tc.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestOverrideRejectsInvalid(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Override("", "mysql", ""))
}

func TestLoadEnv(t *testing.T) {
	const key, kept = "CITY_LIBRARY_TEST_DOTENV", "CITY_LIBRARY_TEST_KEPT"
	t.Setenv(kept, "shell")
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=from-dotenv\n"+kept+"=from-dotenv\n")
	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "absent.env")))

	assert.Equal(t, "from-dotenv", os.Getenv(key))
	assert.Equal(t, "shell", os.Getenv(kept))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{LogLevel: "info", LogFormat: "json"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown", "books", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"books":3`)

	buf.Reset()
	NewLogger(Config{LogLevel: "warn", LogFormat: "text"}, &buf).Warn("careful")
	assert.Contains(t, buf.String(), "msg=careful")
}
