// Package workload turns a task set into a booted system: a simulated
// machine, a kernel wired to its timer, and one registered task per
// configured entry, each running a synthetic body that spends cycles.
package workload

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"rtos-in-go/internal/config"
	"rtos-in-go/kernel"
	"rtos-in-go/port/sim"
)

// IdleName is the name of the task Build adds when the set asks for one.
const IdleName = "idle"

// Stats counts what one task body did. It is written only by the task's
// own thread, and read while the machine is paused.
type Stats struct {
	Activations int
	Cycles      uint64
	// Arg is what the body found in its argument register on entry.
	Arg uint16
}

// System is a machine and kernel running a task set.
type System struct {
	Set     *config.TaskSet
	Machine *sim.Machine
	Kernel  *kernel.Kernel
	Arena   *kernel.Arena

	stats []*Stats
}

// Build registers the task set and starts the kernel. The machine is not
// advanced; the first Advance boots it.
func Build(set *config.TaskSet, tracer kernel.Tracer, logger *slog.Logger) (*System, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	m := sim.New(sim.Config{CyclesPerTick: set.CyclesPerTick}, logger)
	k := kernel.New(m, kernel.Config{Tracer: tracer}, logger)
	m.OnTimer(k.TickHandler)
	m.OnReturn(k.Exit)

	s := &System{
		Set:     set,
		Machine: m,
		Kernel:  k,
		Arena:   kernel.NewArena(make([]byte, set.Arena)),
	}
	for _, t := range set.Tasks {
		st := &Stats{}
		d := kernel.Descriptor{
			Name:     t.Name,
			Entry:    s.body(t, st),
			Arg:      uintptr(t.Arg),
			Priority: t.Priority,
			Period:   set.PeriodOf(t),
			Delay:    set.DelayOf(t),
		}
		if err := s.register(d, t.Stack, st); err != nil {
			return nil, err
		}
	}
	if set.Idle {
		st := &Stats{}
		d := kernel.Descriptor{Name: IdleName, Entry: s.idle(st), Priority: 255}
		if err := s.register(d, config.DefaultStack, st); err != nil {
			return nil, err
		}
	}
	k.Start()
	return s, nil
}

func (s *System) register(d kernel.Descriptor, size int, st *Stats) error {
	stack, err := s.Arena.Alloc(size)
	if err != nil {
		return fmt.Errorf("stack for %s: %w", d.Name, err)
	}
	if _, err := s.Kernel.Register(d, stack); err != nil {
		return fmt.Errorf("register %s: %w", d.Name, err)
	}
	s.stats = append(s.stats, st)
	return nil
}

// Stats returns the counters of the task in slot i.
func (s *System) Stats(i int) Stats { return *s.stats[i] }

// Advance runs n more ticks.
func (s *System) Advance(n uint64) error { return s.Machine.Advance(n) }

// Halt stops the machine.
func (s *System) Halt() { s.Machine.Halt() }

func (s *System) spend(st *Stats, n int) {
	s.Machine.Spin(n)
	st.Cycles += uint64(n)
}

func (s *System) body(t config.Task, st *Stats) func() {
	k, m := s.Kernel, s.Machine
	switch t.Kind {
	case config.Background:
		return func() {
			st.Arg = m.Arg()
			st.Activations++
			for {
				s.spend(st, 1)
			}
		}
	case config.Oneshot:
		return func() {
			st.Arg = m.Arg()
			st.Activations++
			s.spend(st, t.Work)
		}
	default:
		return func() {
			st.Arg = m.Arg()
			for {
				st.Activations++
				s.spend(st, t.Work)
				if t.Runs > 0 && st.Activations >= t.Runs {
					k.Exit()
				}
				k.Finish()
			}
		}
	}
}

func (s *System) idle(st *Stats) func() {
	return func() {
		st.Activations++
		for {
			s.spend(st, 1)
		}
	}
}
