package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rtos-in-go/internal/config"
	"rtos-in-go/internal/trace"
	"rtos-in-go/internal/workload"
)

func newRunCmd() *cobra.Command {
	var ticks uint64
	var dbPath string
	var ganttPath string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task set for a number of ticks",
		Long: `Registers every task of the set, boots the simulated machine and lets it
take the given number of timer interrupts. Prints the task that held the
processor during each tick, then a per-task summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := config.Load(flagFile)
			if err != nil {
				return err
			}
			rec := trace.NewRecorder()
			sys, err := workload.Build(set, rec, logger)
			if err != nil {
				return err
			}
			logger.Info("run", "id", rec.RunID, "file", flagFile, "ticks", ticks)

			runErr := sys.Advance(ticks)
			rep := sys.Report()
			sys.Halt()

			out := cmd.OutOrStdout()
			if !quiet {
				printTicks(out, 0, rec.Timeline(), names(rep))
				fmt.Fprintln(out)
			}
			printSummary(out, rep)
			fmt.Fprintf(out, "\n%d ticks (%s simulated), %d switches, run %s\n",
				sys.Kernel.Ticks(), set.Rate().Duration(sys.Kernel.Ticks()), rec.Switches(), rec.RunID)

			if dbPath != "" {
				run := &trace.Run{
					ID:            rec.RunID,
					Source:        flagFile,
					TickRate:      set.TickRate,
					CyclesPerTick: set.CyclesPerTick,
					Ticks:         sys.Kernel.Ticks(),
					Switches:      rec.Switches(),
					CreatedAt:     time.Now().UTC(),
					Tasks:         traceTasks(rep),
					Events:        rec.Events,
				}
				if runErr != nil {
					run.Error = runErr.Error()
				}
				if err := saveRun(cmd.Context(), dbPath, run); err != nil {
					return err
				}
			}
			if ganttPath != "" {
				if err := trace.WriteGantt(ganttPath, rec.Timeline(), names(rep)); err != nil {
					return err
				}
			}

			if runErr != nil {
				return fmt.Errorf("machine stopped at tick %d: %w", sys.Kernel.Ticks(), runErr)
			}
			return nil
		},
	}

	cmd.Flags().Uint64VarP(&ticks, "ticks", "n", 100, "Number of timer interrupts to take")
	cmd.Flags().StringVar(&dbPath, "db", "", "Append the run to this SQLite database")
	cmd.Flags().StringVar(&ganttPath, "gantt", "", "Write a Gantt chart PNG to this path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")

	return cmd
}

func saveRun(ctx context.Context, path string, run *trace.Run) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := trace.Open(path, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", path, err)
	}
	if err := st.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	logger.Info("trace saved", "db", path, "id", run.ID, "events", len(run.Events))
	return nil
}
