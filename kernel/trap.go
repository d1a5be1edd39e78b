package kernel

// TickHandler is the service routine for the periodic tick interrupt.
func (k *Kernel) TickHandler() {
	k.Pass(true)
}

// Pass runs one scheduling pass on behalf of the running task: save its
// context, advance time if elapsed is set, dispatch, and restore whichever
// task is now current. When another task is picked, Pass returns only
// after the caller has been dispatched again.
func (k *Kernel) Pass(elapsed bool) {
	s := k.enter()
	k.port.SaveContext(k.ctx)
	k.schedule(elapsed)
	k.port.RestoreContext(k.ctx)
	k.leave(s)
}

// Finish ends the running task's current activation. The next task is
// dispatched at once, without waiting for the tick and without counting
// one; Finish returns when the caller is activated again.
func (k *Kernel) Finish() {
	k.yield(Done)
}

// Exit retires the running task for good. It does not return.
func (k *Kernel) Exit() {
	k.yield(Dead)
	panic("kernel: dead task " + k.tasks[k.cur].name + " resumed")
}

func (k *Kernel) yield(st State) {
	s := k.enter()
	if !k.started || k.ctx == &k.boot {
		panic("kernel: yield outside a task")
	}
	t := &k.tasks[k.cur]
	t.state = st
	k.logger.Debug("task yielded", "slot", k.cur, "task", t.name, "state", st)
	k.port.SaveContext(k.ctx)
	k.schedule(false)
	k.port.RestoreContext(k.ctx)
	k.leave(s)
}

func (k *Kernel) schedule(elapsed bool) {
	if elapsed {
		k.account()
	}
	prev, next := k.dispatch()
	if prev != next || elapsed {
		k.logger.Debug("dispatch", "tick", k.now(), "prev", prev, "next", next,
			"task", k.tasks[next].name, "elapsed", elapsed)
	}
	if k.tracer != nil {
		k.tracer.Dispatched(k.now(), prev, next, elapsed)
	}
}

// now is the index of the most recent tick.
func (k *Kernel) now() uint64 {
	if k.ticks == 0 {
		return 0
	}
	return k.ticks - 1
}
