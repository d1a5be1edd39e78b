// Package kernel is a fixed-priority preemptive scheduler for a single
// core. Tasks are registered once before the tick source is armed; from
// then on every tick runs one scheduling pass: save the running context,
// advance per-task delays, pick the eligible task with the lowest priority
// value, and restore its context.
package kernel

import (
	"io"
	"log/slog"
	"math"
)

// Tracer observes scheduling decisions. Calls happen inside the critical
// section and must not block or call back into the kernel.
type Tracer interface {
	// Promoted is called when accounting moves a task to Ready.
	Promoted(tick uint64, slot int)
	// Dispatched is called at the end of every pass. elapsed is false
	// for passes entered through Finish or Exit.
	Dispatched(tick uint64, prev, next int, elapsed bool)
}

// Config holds scheduler configuration.
type Config struct {
	// MinStack is the smallest stack Register accepts. Zero asks the port
	// through a MinStack() int method, if it has one.
	MinStack int
	Tracer   Tracer
}

// Kernel is the scheduler context. There is one per processor.
type Kernel struct {
	port   Port
	tracer Tracer
	logger *slog.Logger

	tasks [MaxTasks]TCB
	n     int

	cur int
	// ctx is the context the restore primitive reads. It is boot until the
	// first dispatch, then always &tasks[cur].ctx.
	ctx  *Context
	boot Context

	ticks    uint64
	started  bool
	minStack int
}

// New creates a kernel running on port.
func New(port Port, cfg Config, logger *slog.Logger) *Kernel {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	k := &Kernel{
		port:     port,
		tracer:   cfg.Tracer,
		logger:   logger.With("component", "kernel"),
		minStack: cfg.MinStack,
	}
	if k.minStack == 0 {
		if p, ok := port.(interface{ MinStack() int }); ok {
			k.minStack = p.MinStack()
		}
	}
	k.ctx = &k.boot
	return k
}

// Start closes registration. The platform arms its tick source after
// Start returns and routes it to TickHandler.
func (k *Kernel) Start() {
	k.started = true
	k.logger.Info("scheduler started", "tasks", k.n)
}

// Started reports whether Start has been called.
func (k *Kernel) Started() bool { return k.started }

// Len returns the number of registered tasks.
func (k *Kernel) Len() int { return k.n }

// Task returns the TCB in slot i, or nil if the slot is empty.
func (k *Kernel) Task(i int) *TCB {
	if i < 0 || i >= k.n {
		return nil
	}
	return &k.tasks[i]
}

// Current returns the slot of the task selected by the last dispatch.
func (k *Kernel) Current() int { return k.cur }

// CurrentContext returns the context the next restore will read.
func (k *Kernel) CurrentContext() *Context { return k.ctx }

// Ticks returns the number of time-driven passes so far.
func (k *Kernel) Ticks() uint64 { return k.ticks }

// TaskInfo is a copy of the scheduling fields of one TCB.
type TaskInfo struct {
	Slot     int
	Name     string
	Priority uint8
	Period   uint16
	Delay    uint16
	State    State
	SP       uintptr
}

// Snapshot copies the scheduling fields of every registered task.
func (k *Kernel) Snapshot() []TaskInfo {
	s := k.enter()
	defer k.leave(s)

	out := make([]TaskInfo, k.n)
	for i := 0; i < k.n; i++ {
		t := &k.tasks[i]
		out[i] = TaskInfo{
			Slot:     i,
			Name:     t.name,
			Priority: t.priority,
			Period:   t.period,
			Delay:    t.delay,
			State:    t.state,
			SP:       t.ctx.SP,
		}
	}
	return out
}
