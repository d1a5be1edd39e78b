package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"rtos-in-go/internal/trace"
	"rtos-in-go/internal/workload"
)

// names returns the task names by slot.
func names(rep []workload.Report) []string {
	out := make([]string, len(rep))
	for i, r := range rep {
		out[i] = r.Name
	}
	return out
}

// printTicks writes one line per tick of the timeline starting at first.
func printTicks(w io.Writer, first int, rows [][]int, names []string) {
	for i, slots := range rows {
		parts := make([]string, len(slots))
		for j, s := range slots {
			parts[j] = names[s]
		}
		fmt.Fprintf(w, "%6d  %s\n", first+i, strings.Join(parts, " > "))
	}
}

func printSummary(w io.Writer, rep []workload.Report) {
	fmt.Fprintf(w, "%-4s  %-12s  %4s  %6s  %-8s  %11s  %12s  %s\n",
		"SLOT", "TASK", "PRIO", "PERIOD", "STATE", "ACTIVATIONS", "CYCLES", "STACK")
	fmt.Fprintf(w, "%-4s  %-12s  %4s  %6s  %-8s  %11s  %12s  %s\n",
		"----", "----", "----", "------", "-----", "-----------", "------", "-----")
	for _, r := range rep {
		fmt.Fprintf(w, "%-4d  %-12s  %4d  %6d  %-8s  %11s  %12s  %s of %s\n",
			r.Slot, r.Name, r.Priority, r.Period, r.State,
			humanize.Comma(int64(r.Activations)), humanize.Comma(int64(r.Cycles)),
			humanize.IBytes(uint64(r.HighWater)), humanize.IBytes(uint64(r.StackSize)))
	}
}

func traceTasks(rep []workload.Report) []trace.Task {
	out := make([]trace.Task, len(rep))
	for i, r := range rep {
		out[i] = trace.Task{
			Slot:        r.Slot,
			Name:        r.Name,
			Priority:    r.Priority,
			Period:      r.Period,
			State:       r.State.String(),
			Activations: r.Activations,
			Cycles:      r.Cycles,
			StackSize:   r.StackSize,
			HighWater:   r.HighWater,
		}
	}
	return out
}
