package cli

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rtos-in-go/internal/config"
	"rtos-in-go/internal/workload"
	"rtos-in-go/port/avr"
)

func newInspectCmd() *cobra.Command {
	var frames bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show what registration makes of a task set",
		Long: `Registers the task set without running it and prints each task's
derived period and initial delay, its stack, and the initial frame the stack
initializer wrote at the top of it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := config.Load(flagFile)
			if err != nil {
				return err
			}
			return inspect(cmd.OutOrStdout(), set, frames)
		},
	}
	cmd.Flags().BoolVar(&frames, "frames", true, "Dump each task's initial frame")
	return cmd
}

func inspect(w io.Writer, set *config.TaskSet, frames bool) error {
	sys, err := workload.Build(set, nil, logger)
	if err != nil {
		return err
	}
	defer sys.Halt()

	fmt.Fprintf(w, "tick rate %d Hz (OCR1A %d), %d cycles per tick\n",
		set.TickRate, avr.Timer1Compare(set.TickRate), set.CyclesPerTick)
	fmt.Fprintf(w, "stack arena %s of %s used, device SRAM %s\n\n",
		humanize.IBytes(uint64(sys.Arena.Used())), humanize.IBytes(uint64(set.Arena)),
		humanize.IBytes(avr.SRAMSize))

	fmt.Fprintf(w, "%-4s  %-12s  %4s  %6s  %5s  %-8s  %s\n",
		"SLOT", "TASK", "PRIO", "PERIOD", "DELAY", "STATE", "STACK")
	fmt.Fprintf(w, "%-4s  %-12s  %4s  %6s  %5s  %-8s  %s\n",
		"----", "----", "----", "------", "-----", "-----", "-----")
	for _, r := range sys.Report() {
		fmt.Fprintf(w, "%-4d  %-12s  %4d  %6d  %5d  %-8s  %s, sp %#x\n",
			r.Slot, r.Name, r.Priority, r.Period, r.Delay, r.State,
			humanize.IBytes(uint64(r.StackSize)), r.SP)
	}

	if !frames {
		return nil
	}
	for i := 0; i < sys.Kernel.Len(); i++ {
		t := sys.Kernel.Task(i)
		stack := t.Context().Stack
		fmt.Fprintf(w, "\n%s: initial frame, sp+1 .. top\n", t.Name())
		fmt.Fprint(w, hex.Dump(stack[t.SP()+1:]))
	}
	return nil
}
