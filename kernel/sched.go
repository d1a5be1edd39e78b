package kernel

// account advances every live task by one tick. A task whose delay has run
// out becomes Ready and its delay reloads from the period; the reload
// counts as the first tick of the new period, so activations are exactly
// period ticks apart.
func (k *Kernel) account() {
	tick := k.ticks
	k.ticks++
	for i := 0; i < k.n; i++ {
		t := &k.tasks[i]
		if t.state == Dead {
			continue
		}
		if t.delay == 0 {
			t.state = Ready
			t.delay = t.period
			if k.tracer != nil {
				k.tracer.Promoted(tick, i)
			}
		}
		if t.delay > 0 {
			t.delay--
		}
	}
}

// pick returns the slot of the eligible task with the lowest priority
// value, or -1. Ties go to the highest slot.
func pick(tasks []TCB) int {
	next := -1
	prio := 255
	for i := range tasks {
		t := &tasks[i]
		if t.state.eligible() && int(t.priority) <= prio {
			next = i
			prio = int(t.priority)
		}
	}
	return next
}

// dispatch demotes the running task, selects the next one and points the
// current context at it.
func (k *Kernel) dispatch() (prev, next int) {
	if k.n == 0 {
		panic("kernel: dispatch: no tasks registered")
	}
	prev = k.cur
	if t := &k.tasks[prev]; t.state == Running {
		t.state = Waiting
	}

	next = pick(k.tasks[:k.n])
	if next < 0 {
		panic("kernel: dispatch: no eligible task")
	}
	k.cur = next
	t := &k.tasks[next]
	t.state = Running
	k.ctx = &t.ctx
	return prev, next
}
