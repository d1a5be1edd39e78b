package workload

import "rtos-in-go/kernel"

// Report is the state of one task while the machine is paused.
type Report struct {
	kernel.TaskInfo
	Stats
	StackSize int
	HighWater int
}

// Report returns one entry per slot.
func (s *System) Report() []Report {
	snap := s.Kernel.Snapshot()
	out := make([]Report, len(snap))
	for i, info := range snap {
		stack := s.Kernel.Task(i).Context().Stack
		out[i] = Report{
			TaskInfo:  info,
			Stats:     *s.stats[i],
			StackSize: len(stack),
			HighWater: kernel.HighWater(stack),
		}
	}
	return out
}
