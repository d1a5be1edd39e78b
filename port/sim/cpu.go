package sim

import (
	"fmt"

	"rtos-in-go/kernel"
	"rtos-in-go/port/avr"
)

// Step executes one cycle of the running task. The timer counts cycles;
// a pending timer interrupt is taken here when the I bit is set.
func (m *Machine) Step() {
	m.cycles++
	if m.cycles%m.cfg.CyclesPerTick == 0 {
		m.pending = true
	}
	if m.pending && m.regs.Interrupts() {
		m.interrupt()
	}
}

// Spin executes n cycles.
func (m *Machine) Spin(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// Reg returns general purpose register r<n>.
func (m *Machine) Reg(n int) byte { return m.regs.R[n] }

// SetReg writes general purpose register r<n>.
func (m *Machine) SetReg(n int, v byte) { m.regs.R[n] = v }

// Arg returns r25:r24, where a task finds its argument on entry.
func (m *Machine) Arg() uint16 { return m.regs.Arg() }

// Interrupts reports whether the global interrupt flag is set.
func (m *Machine) Interrupts() bool { return m.regs.Interrupts() }

// Cycles returns the number of cycles executed.
func (m *Machine) Cycles() uint64 { return m.cycles }

func (m *Machine) interrupt() {
	for m.serviced >= m.limit {
		m.pause()
	}
	m.pending = false
	m.serviced++
	m.logger.Debug("interrupt", "vector", avr.VectorTimer1CompA, "tick", m.serviced-1, "cycles", m.cycles)

	// Entry clears I; reti sets it again once this context is resumed.
	m.regs.SREG &^= avr.SREGI
	m.vector()
	m.regs.SREG |= avr.SREGI
}

// MinStack is the smallest stack that holds the initial frame.
func (m *Machine) MinStack() int { return avr.FrameSize + 1 }

// InitStack links entry at the next free code address and writes the
// initial frame for it.
func (m *Machine) InitStack(ctx *kernel.Context, entry func(), arg uintptr) {
	pc := m.nextPC
	if int(pc)+codeStride > avr.FlashWords {
		panic("sim: flash full")
	}
	m.nextPC += codeStride
	ctx.SP = avr.InitStack(ctx.Stack, pc, uint16(arg))
	m.threads[ctx] = &thread{
		ctx:    ctx,
		entry:  entry,
		pc:     pc,
		resume: make(chan struct{}, 1),
	}
	m.logger.Debug("linked", "pc", fmt.Sprintf("%#04x", pc), "sp", ctx.SP, "stack", len(ctx.Stack))
}

// SaveContext pushes the register file onto ctx's stack. The reset
// context has no stack and is never resumed, so its registers are dropped.
func (m *Machine) SaveContext(ctx *kernel.Context) {
	if len(ctx.Stack) == 0 {
		return
	}
	ctx.SP = avr.Push(ctx.Stack, ctx.SP, &m.regs)
}

// RestoreContext pops ctx's frame into the register file and hands the
// processor to the thread that owns it.
func (m *Machine) RestoreContext(ctx *kernel.Context) {
	t := m.threads[ctx]
	if t == nil {
		panic("sim: restore of a context that was never initialised")
	}
	ctx.SP = avr.Pop(ctx.Stack, ctx.SP, &m.regs)
	if m.regs.PC != t.pc {
		panic(fmt.Sprintf("sim: corrupt frame: pc %#04x, task linked at %#04x", m.regs.PC, t.pc))
	}
	if t == m.cur {
		return
	}

	prev := m.cur
	m.cur = t
	m.switches++
	if !t.started {
		t.started = true
		m.start(t)
	} else {
		t.resume <- struct{}{}
	}
	m.park(prev)
}

func (m *Machine) DisableInterrupts() kernel.IntrState {
	s := kernel.IntrState(m.regs.SREG & avr.SREGI)
	m.regs.SREG &^= avr.SREGI
	return s
}

func (m *Machine) RestoreInterrupts(s kernel.IntrState) {
	m.regs.SREG = m.regs.SREG&^avr.SREGI | byte(s)&avr.SREGI
}
