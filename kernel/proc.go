package kernel

import (
	"errors"
	"fmt"
)

// MaxTasks is the capacity of the task table.
const MaxTasks = 16

// State is the scheduling state of a task.
type State uint8

const (
	Ready   State = iota // eligible, never run in this activation
	Running              // on the processor
	Waiting              // preempted, still eligible
	Done                 // not due yet; also the state before the first activation
	Dead                 // excluded for good
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Done:
		return "done"
	case Dead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// eligible reports whether the dispatcher may pick a task in state s.
func (s State) eligible() bool {
	return s == Ready || s == Waiting
}

var (
	ErrStarted       = errors.New("kernel: scheduler already started")
	ErrTableFull     = errors.New("kernel: task table full")
	ErrNoEntry       = errors.New("kernel: task has no entry point")
	ErrStackTooSmall = errors.New("kernel: stack smaller than an initial frame")
)

// Descriptor is everything needed to register a task.
type Descriptor struct {
	Name     string
	Entry    func()
	Arg      uintptr // handed to Entry in the argument register
	Priority uint8   // lower value runs first
	Period   uint16  // ticks between activations
	Delay    uint16  // ticks before the first activation
}

// TCB is the task control block.
type TCB struct {
	// ctx.SP is written only by the port during a context switch.
	ctx   Context
	entry func()
	arg   uintptr
	name  string

	priority uint8
	period   uint16

	delay uint16
	state State
}

func (t *TCB) Name() string      { return t.name }
func (t *TCB) Priority() uint8   { return t.priority }
func (t *TCB) Period() uint16    { return t.period }
func (t *TCB) Delay() uint16     { return t.delay }
func (t *TCB) State() State      { return t.state }
func (t *TCB) StackSize() int    { return len(t.ctx.Stack) }
func (t *TCB) SP() uintptr       { return t.ctx.SP }
func (t *TCB) Context() *Context { return &t.ctx }

// Register puts a task into the next free slot and builds its initial
// frame on stack, which the caller keeps for the lifetime of the program.
// It returns the slot index. Registration is only allowed before Start.
func (k *Kernel) Register(d Descriptor, stack []byte) (int, error) {
	if k.started {
		return -1, ErrStarted
	}
	if k.n >= MaxTasks {
		return -1, fmt.Errorf("register %q: %w", d.Name, ErrTableFull)
	}
	if d.Entry == nil {
		return -1, fmt.Errorf("register %q: %w", d.Name, ErrNoEntry)
	}
	if len(stack) < k.minStack {
		return -1, fmt.Errorf("register %q: %d bytes: %w", d.Name, len(stack), ErrStackTooSmall)
	}

	t := &k.tasks[k.n]
	*t = TCB{
		ctx:      Context{Stack: stack},
		entry:    d.Entry,
		arg:      d.Arg,
		name:     d.Name,
		priority: d.Priority,
		period:   d.Period,
		delay:    d.Delay,
		state:    Done,
	}
	k.port.InitStack(&t.ctx, t.entry, t.arg)

	idx := k.n
	k.n++
	k.logger.Debug("task registered", "slot", idx, "task", t.name,
		"priority", t.priority, "period", t.period, "delay", t.delay,
		"stack", len(stack), "sp", t.ctx.SP)
	return idx, nil
}
