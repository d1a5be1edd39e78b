// Package cli implements the rtsim command line: run a task set on the
// simulated machine, step it one tick at a time, or inspect what
// registration would produce.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"rtos-in-go/internal/logging"
)

var (
	flagFile      string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for rtsim.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rtsim",
		Short: "Fixed-priority preemptive scheduler on a simulated AVR",
		Long: "rtsim registers a task set with the tick scheduler, runs it on a simulated\n" +
			"single-core AVR machine and reports which task held the processor on each tick.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagFile, "file", "f", "tasks.yaml", "Task-set file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newStepCmd(),
		newInspectCmd(),
	)

	return root
}
