package cli

import (
	"fmt"
	"os"

	"github.com/erg0nix/sessgraph/internal/config"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE:  runInitCmd,
	}
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; remove it first to regenerate", path)
	}

	if err := config.Write(path, config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "wrote "+path)
	return nil
}
