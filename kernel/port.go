package kernel

// Context is the saved execution context of one task: the private stack
// and the stack pointer the restore primitive resumes from. SP is a
// position in Stack whose meaning belongs to the port.
type Context struct {
	SP    uintptr
	Stack []byte
}

// IntrState is the interrupt flag as it was before DisableInterrupts.
type IntrState uint8

// Port is what a platform provides to the scheduler.
//
// SaveContext and RestoreContext are only ever called between
// DisableInterrupts and RestoreInterrupts. SaveContext pushes the full
// register set (status and interrupt flag included) onto ctx.Stack and
// stores the new stack pointer in ctx.SP. RestoreContext pops from ctx.SP
// and continues whichever task owns ctx; if that is the caller it returns
// immediately, otherwise it returns only once the caller's own context is
// restored again.
type Port interface {
	// InitStack writes an initial frame into ctx.Stack so that the first
	// RestoreContext(ctx) enters entry with arg in the argument register
	// and interrupts enabled. It sets ctx.SP.
	InitStack(ctx *Context, entry func(), arg uintptr)
	SaveContext(ctx *Context)
	RestoreContext(ctx *Context)
	DisableInterrupts() IntrState
	RestoreInterrupts(s IntrState)
}
