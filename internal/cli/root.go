// Package cli implements the pksim command line: an offline view of the
// compound catalog, the simulation engine and the elimination-rate
// estimator that needs no server or database.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/pksim-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	json     bool
}

// NewRootCommand builds the pksim command tree. Each call returns an
// independent tree with its own flag state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pksim",
		Short: "Simulate injectable hormone levels",
		Long: `pksim models serum hormone levels after injected esters with a
one-compartment pharmacokinetic model.

List the modeled compounds, simulate a dosing schedule, or fit a personal
elimination rate to exported blood test records.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Write JSON instead of a table")

	cmd.AddCommand(newCompoundsCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newEstimateCommand(opts))
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.New(cmd.ErrOrStderr(), o.logLevel)
}
