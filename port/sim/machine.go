// Package sim is a hosted single-core machine for the scheduler. It keeps
// one AVR register file and moves it on and off real frames on the task
// stacks; each task body runs on its own goroutine, and only the goroutine
// that owns the processor ever runs. Time is counted in cycles, which task
// bodies spend through Step and Spin.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"rtos-in-go/kernel"
	"rtos-in-go/port/avr"
)

var (
	ErrHalted   = errors.New("sim: machine halted")
	ErrNoVector = errors.New("sim: no timer vector installed")
	ErrCrashed  = errors.New("sim: crashed")
	ErrReturned = errors.New("sim: task entry returned")
)

// codeStride is how many flash words each linked task entry gets.
const codeStride = 0x40

// Config holds machine configuration.
type Config struct {
	// CyclesPerTick is how many Step calls pass between timer interrupts.
	CyclesPerTick uint64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{CyclesPerTick: 8}
}

type thread struct {
	ctx     *kernel.Context
	entry   func()
	pc      uint16
	resume  chan struct{}
	started bool
}

// Machine implements kernel.Port.
type Machine struct {
	cfg    Config
	logger *slog.Logger

	regs     avr.Registers
	cycles   uint64
	pending  bool
	serviced uint64
	limit    uint64
	switches uint64

	vector func()
	exit   func()

	nextPC  uint16
	threads map[*kernel.Context]*thread
	cur     *thread
	boot    *thread

	booted bool
	halted bool
	paused chan struct{}
	cont   chan struct{}
	quit   chan struct{}
	wg     sync.WaitGroup

	stopped  chan struct{}
	stopOnce sync.Once
	err      error
}

// New creates a machine in its reset state.
func New(cfg Config, logger *slog.Logger) *Machine {
	if cfg.CyclesPerTick == 0 {
		cfg.CyclesPerTick = DefaultConfig().CyclesPerTick
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	m := &Machine{
		cfg:     cfg,
		logger:  logger.With("component", "sim"),
		nextPC:  avr.CodeStart,
		threads: make(map[*kernel.Context]*thread),
		paused:  make(chan struct{}),
		cont:    make(chan struct{}),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	m.regs.PC = avr.VectorReset
	m.boot = &thread{pc: avr.CodeStart, resume: make(chan struct{}, 1)}
	return m
}

// OnTimer installs the timer interrupt service routine.
func (m *Machine) OnTimer(isr func()) { m.vector = isr }

// OnReturn installs what runs, on the task's own thread, when a task entry
// returns. Without it a returning entry stops the machine.
func (m *Machine) OnReturn(fn func()) { m.exit = fn }

// Serviced returns the number of timer interrupts taken.
func (m *Machine) Serviced() uint64 { return m.serviced }

// Switches returns the number of times the processor changed hands.
func (m *Machine) Switches() uint64 { return m.switches }

// Advance lets the machine run until it has taken n more timer interrupts
// and is about to take the next one. The first call boots it: the reset
// context enables interrupts and idles until the first tick.
func (m *Machine) Advance(n uint64) error {
	if m.halted {
		return ErrHalted
	}
	select {
	case <-m.stopped:
		return m.err
	default:
	}
	if m.vector == nil {
		return ErrNoVector
	}

	m.limit += n
	if !m.booted {
		m.booted = true
		m.cur = m.boot
		m.regs.PC = m.boot.pc
		m.regs.SREG |= avr.SREGI
		m.logger.Debug("boot", "cycles_per_tick", m.cfg.CyclesPerTick)
		m.spawn(func() {
			for {
				m.Step()
			}
		})
	} else {
		m.cont <- struct{}{}
	}

	select {
	case <-m.paused:
		return nil
	case <-m.stopped:
		return m.err
	}
}

// Halt stops every thread and waits for them to exit. The machine cannot
// be advanced afterwards.
func (m *Machine) Halt() {
	if m.halted {
		return
	}
	m.halted = true
	close(m.quit)
	m.wg.Wait()
	m.logger.Debug("halted", "ticks", m.serviced, "cycles", m.cycles, "switches", m.switches)
}

// Run advances n ticks and halts.
func (m *Machine) Run(n uint64) error {
	err := m.Advance(n)
	m.Halt()
	return err
}

func (m *Machine) start(t *thread) {
	m.logger.Debug("thread start", "pc", fmt.Sprintf("%#04x", t.pc), "arg", m.regs.Arg())
	m.spawn(func() {
		t.entry()
		if m.exit == nil {
			panic(ErrReturned)
		}
		m.exit()
	})
}

func (m *Machine) spawn(fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok && errors.Is(err, ErrReturned) {
					m.stop(err)
					return
				}
				m.stop(fmt.Errorf("%w: %v", ErrCrashed, r))
			}
		}()
		fn()
	}()
}

// park blocks the calling thread until the processor is handed back.
func (m *Machine) park(t *thread) {
	select {
	case <-t.resume:
	case <-m.quit:
		runtime.Goexit()
	}
}

// pause hands control back to Advance's caller.
func (m *Machine) pause() {
	m.paused <- struct{}{}
	select {
	case <-m.cont:
	case <-m.quit:
		runtime.Goexit()
	}
}

func (m *Machine) stop(err error) {
	m.stopOnce.Do(func() {
		m.err = err
		m.logger.Error("machine stopped", "error", err)
		close(m.stopped)
	})
}
