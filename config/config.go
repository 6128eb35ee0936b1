// Package config loads runtime settings for the library CLI.
//
// Precedence, lowest first: built-in defaults, the YAML config file, .env
// and process environment (LIBRARY_*), then command-line flags applied by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"city-library/library"
)

// Environment variables read by Load.
const (
	EnvDataDir   = "LIBRARY_DATA_DIR"
	EnvBackend   = "LIBRARY_BACKEND"
	EnvLogLevel  = "LIBRARY_LOG_LEVEL"
	EnvLogFormat = "LIBRARY_LOG_FORMAT"
)

type Config struct {
	DataDir   string `yaml:"data_dir"`
	Backend   string `yaml:"backend"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default keeps snapshots in the working directory as JSON files.
func Default() Config {
	return Config{
		DataDir:   ".",
		Backend:   library.BackendFile,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// LoadEnv reads .env style files into the process environment. Missing files
// are skipped; existing variables win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	overrideFromEnv(&cfg.DataDir, EnvDataDir)
	overrideFromEnv(&cfg.Backend, EnvBackend)
	overrideFromEnv(&cfg.LogLevel, EnvLogLevel)
	overrideFromEnv(&cfg.LogFormat, EnvLogFormat)

	return cfg, cfg.Validate()
}

// Override applies non-empty command-line values on top of c and validates
// the result.
func (c *Config) Override(dataDir, backend, logLevel string) error {
	if dataDir != "" {
		c.DataDir = dataDir
	}
	if backend != "" {
		c.Backend = backend
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	return c.Validate()
}

func overrideFromEnv(field *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*field = strings.TrimSpace(v)
	}
}

// Validate rejects unknown backends, levels and formats.
func (c Config) Validate() error {
	switch c.Backend {
	case library.BackendFile, library.BackendSQLite:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", library.BackendFile, library.BackendSQLite, c.Backend)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data dir must not be empty")
	}
	return nil
}

// NewLogger builds the slog logger described by c, writing to w.
func NewLogger(c Config, w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
