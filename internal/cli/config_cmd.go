package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			data, err := toml.Marshal(app.Config)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", app.ConfigPath, data)
			return nil
		},
	}
}
