package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/erg0nix/sessgraph/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type App struct {
	Config     config.Config
	ConfigPath string
}

// newApp resolves the effective config: defaults, then the config file, then
// .env and SESSGRAPH_* variables, then flags.
func newApp(cmd *cobra.Command) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = config.LoadFromEnv(cfg)

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &App{
		Config:     cfg,
		ConfigPath: configPath,
	}, nil
}
