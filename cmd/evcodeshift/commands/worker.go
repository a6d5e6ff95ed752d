package commands

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/cmd/evcodeshift/opts"
	"github.com/ElonVolo/evcodeshift/pkg/status"
	"github.com/ElonVolo/evcodeshift/pkg/worker"
)

// eventsFD is where the controller expects events, see controller.process.
const eventsFD = 3

// NewWorkerCmd creates the worker command. Controllers start it; it is not
// meant to be run by hand.
func NewWorkerCmd(root *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker <transform> [dialect]",
		Short:  "Serve batches from stdin, writing events to fd 3",
		Hidden: true,
		Args:   cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "worker").Int("pid", os.Getpid()).Logger().WithContext(cmd.Context())

			events := os.NewFile(eventsFD, "events")
			if events == nil {
				return errors.Errorf("events descriptor %d is not open", eventsFD)
			}
			defer events.Close()
			if _, err := events.Stat(); err != nil {
				return errors.Errorf("events descriptor %d is not open: %w", eventsFD, err)
			}

			dialect := ""
			if len(args) > 1 {
				dialect = args[1]
			}

			return worker.Standalone(ctx, worker.Options{
				Transform: args[0],
				Dialect:   dialect,
				Sink:      status.NewStream(events),
				Stdout:    cmd.OutOrStdout(),
			}, os.Stdin)
		},
	}

	return cmd
}
