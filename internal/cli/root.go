// Package cli implements the Cobra command tree for the sessgraph CLI.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/erg0nix/sessgraph/internal/interpreter"

	"github.com/spf13/cobra"
)

const longHelp = `Maintains a graph of session and handler nodes. Each handler keeps a strong
or weak reference to a session. There is a table of all waiting handlers, but
sessions are referenced only from handlers. So, when all handlers holding a
session strongly are erased, the session is deleted as well.

Commands are read from stdin (or --input), one per line. H and S are names of
a handler and a session:

  H + S      creates a new session S and a new handler H holding it strongly
  H1 => H2   creates a new handler H1 sharing ownership of H2's session
  H1 -> H2   creates a new handler H1 with a weak reference to H2's session
  ! H        "executes" and erases handler H
  ?          lists handlers and the sessions they reach`

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sessgraph",
		Short:         "Interactive session/handler ownership graph",
		Long:          longHelp,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runRootCmd,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.Flags().StringP("input", "i", "", "read commands from file instead of stdin")
	rootCmd.Flags().Bool("echo", false, "echo each command before its result")
	rootCmd.Flags().Bool("check", false, "verify registry invariants after every command")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runRootCmd(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("echo") {
		app.Config.Interpreter.Echo, _ = cmd.Flags().GetBool("echo")
	}
	if cmd.Flags().Changed("check") {
		app.Config.Interpreter.CheckInvariants, _ = cmd.Flags().GetBool("check")
	}

	logger, err := newLogger(app.Config, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	input := cmd.InOrStdin()
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	interp := interpreter.New(cmd.OutOrStdout(), interpreter.Options{
		Echo:            app.Config.Interpreter.Echo,
		CheckInvariants: app.Config.Interpreter.CheckInvariants,
		Logger:          logger,
	})
	return interp.Run(cmd.Context(), input)
}
