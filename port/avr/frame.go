// Package avr describes the execution context of an 8-bit AVR core as
// bytes on a task stack: the frame the context-save sequence pushes, and
// the initial frame that makes a fresh task look as if it had been
// preempted right at its first instruction.
package avr

// SREGI is the global interrupt enable bit of the status register.
const SREGI = 0x80

// FrameSize is the number of bytes one saved context occupies: the return
// address, r0, SREG and r1..r31.
const FrameSize = 35

// Registers is the CPU state captured by a context save.
type Registers struct {
	R    [32]byte
	SREG byte
	PC   uint16 // word address
}

// Interrupts reports whether the I bit is set.
func (r *Registers) Interrupts() bool { return r.SREG&SREGI != 0 }

// Arg returns the first 16-bit argument register pair r25:r24.
func (r *Registers) Arg() uint16 { return uint16(r.R[24]) | uint16(r.R[25])<<8 }

// Byte offsets below the top of the frame. push is post-decrement, so the
// first byte pushed sits at the highest address.
const (
	offPCLo = 0
	offPCHi = 1
	offR0   = 2
	offSREG = 3
)

func offR(n int) int { return offSREG + n } // n >= 1

// InitStack writes the initial frame at the top of stack and returns the
// stack pointer to store in the task's context. The frame returns to entry
// with arg in r25:r24, r1 cleared as the compiler expects, and interrupts
// enabled. r2..r23 and r26..r31 are left as they are.
//
// stack must hold at least FrameSize+1 bytes; this is not checked.
func InitStack(stack []byte, entry uint16, arg uint16) uintptr {
	top := len(stack) - 1

	stack[top-offPCLo] = byte(entry)
	stack[top-offPCHi] = byte(entry >> 8)
	stack[top-offR0] = 0
	stack[top-offSREG] = SREGI
	stack[top-offR(1)] = 0
	stack[top-offR(24)] = byte(arg)
	stack[top-offR(25)] = byte(arg >> 8)

	return uintptr(top - FrameSize)
}

// Push saves regs below sp, in the order of an interrupt entry followed by
// the context-save sequence, and returns the new stack pointer.
func Push(stack []byte, sp uintptr, regs *Registers) uintptr {
	p := int(sp)
	push := func(b byte) {
		stack[p] = b
		p--
	}
	push(byte(regs.PC))
	push(byte(regs.PC >> 8))
	push(regs.R[0])
	push(regs.SREG)
	for n := 1; n < 32; n++ {
		push(regs.R[n])
	}
	return uintptr(p)
}

// Pop reads the frame above sp into regs and returns the stack pointer
// after the frame.
func Pop(stack []byte, sp uintptr, regs *Registers) uintptr {
	p := int(sp)
	pop := func() byte {
		p++
		return stack[p]
	}
	for n := 31; n >= 1; n-- {
		regs.R[n] = pop()
	}
	regs.SREG = pop()
	regs.R[0] = pop()
	hi := pop()
	lo := pop()
	regs.PC = uint16(hi)<<8 | uint16(lo)
	return uintptr(p)
}
