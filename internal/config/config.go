package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type InterpreterConfig struct {
	Echo            bool `toml:"echo"`
	CheckInvariants bool `toml:"check_invariants"`
}

type Config struct {
	LogLevel    string            `toml:"log_level"`
	LogFormat   string            `toml:"log_format"`
	Interpreter InterpreterConfig `toml:"interpreter"`
}

func Default() Config {
	return Config{
		LogLevel:  "warn",
		LogFormat: "text",
		Interpreter: InterpreterConfig{
			Echo:            false,
			CheckInvariants: false,
		},
	}
}

// DefaultPath is the config file used when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Load reads the config at path on top of the defaults. A missing file is
// not an error.
func Load(path string) (Config, error) {
	config := Default()

	configData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}

	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	config.LogFormat = strings.ToLower(strings.TrimSpace(config.LogFormat))

	return config, config.Validate()
}

// Write stores config at path, creating parent directories.
func Write(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	configData, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, configData, 0o644)
}

func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid log_format %q: want text or json", c.LogFormat)
	}
}

// ParseLevel maps a log_level value to a slog level. Empty means warn.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log_level %q", raw)
	}
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return ".sessgraph"
	}

	return filepath.Join(homeDir, ".sessgraph")
}
