package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ElonVolo/evcodeshift/cmd/evcodeshift/commands"
	"github.com/ElonVolo/evcodeshift/cmd/evcodeshift/opts"
)

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	root := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "evcodeshift",
		Short: "Run a transform over many files in parallel",
		Long: `evcodeshift applies a transform to a set of files. The files are split into
batches and handed to worker processes, which rewrite them in place and report
what happened to each one.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := setupLogging(root)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	addRootFlags(cmd, root)

	cmd.AddCommand(
		commands.NewRunCmd(root),
		commands.NewWorkerCmd(root),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, root *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&root.ConfigFile, "config", "c", "", "config file path (default: .evcodeshift.* in the working directory)")
	cmd.PersistentFlags().BoolVarP(&root.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&root.NoColor, "no-color", false, "disable colored output")
}

// setupLogging configures zerolog and color based on flags. Logs always go to
// stderr; stdout belongs to the console output and printed sources.
func setupLogging(root *opts.RootOpts) zerolog.Logger {
	level := zerolog.InfoLevel
	if root.Debug {
		level = zerolog.DebugLevel
	}

	color.NoColor = root.NoColor || !isatty.IsTerminal(os.Stdout.Fd())

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
