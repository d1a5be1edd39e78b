package cli

import (
	"fmt"
	"io"

	"github.com/mattn/go-tty"
	"github.com/spf13/cobra"

	"rtos-in-go/internal/config"
	"rtos-in-go/internal/trace"
	"rtos-in-go/internal/workload"
)

// keyReader is the part of a terminal step reads from.
type keyReader interface {
	ReadRune() (rune, error)
}

func newStepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step",
		Short: "Advance a task set one tick per key press",
		Long: `Boots the task set and waits for a key. Space or enter takes one timer
interrupt and prints the dispatches it caused and the task table; a digit
takes that many; q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := config.Load(flagFile)
			if err != nil {
				return err
			}
			term, err := tty.Open()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			defer term.Close()
			return step(cmd.OutOrStdout(), term, set)
		},
	}
}

func step(w io.Writer, keys keyReader, set *config.TaskSet) error {
	rec := trace.NewRecorder()
	sys, err := workload.Build(set, rec, logger)
	if err != nil {
		return err
	}
	defer sys.Halt()

	fmt.Fprintln(w, "space/enter: one tick, 1-9: that many, q: quit")
	for {
		r, err := keys.ReadRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		var n uint64
		switch {
		case r == 'q' || r == 'Q' || r == 3: // ctrl-c arrives as a rune in raw mode
			return nil
		case r == ' ' || r == '\r' || r == '\n':
			n = 1
		case r >= '1' && r <= '9':
			n = uint64(r - '0')
		default:
			continue
		}

		first := len(rec.Timeline())
		if err := sys.Advance(n); err != nil {
			return fmt.Errorf("machine stopped at tick %d: %w", sys.Kernel.Ticks(), err)
		}
		rep := sys.Report()
		rows := rec.Timeline()
		if first < len(rows) {
			printTicks(w, first, rows[first:], names(rep))
		}
		for _, t := range rep {
			fmt.Fprintf(w, "        %-12s %-8s delay %d\n", t.Name, t.State, t.Delay)
		}
	}
}
