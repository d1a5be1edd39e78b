package kernel

// The task table and the current slot are only written between enter and
// leave. On one core with the tick interrupt masked nothing else can run,
// so this is the whole of the kernel's locking.

func (k *Kernel) enter() IntrState {
	return k.port.DisableInterrupts()
}

func (k *Kernel) leave(s IntrState) {
	k.port.RestoreInterrupts(s)
}
