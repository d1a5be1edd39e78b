package kernel

import "time"

// Rate converts wall-clock quantities into ticks of a fixed tick rate.
type Rate struct {
	TickHz uint32
}

// Period returns the number of ticks between activations of a task that
// should run freqHz times per second. Frequencies above the tick rate
// yield 0, which makes the task due on every tick.
func (r Rate) Period(freqHz uint32) uint16 {
	if freqHz == 0 || r.TickHz == 0 {
		return 0
	}
	return clamp16(uint64(r.TickHz / freqHz))
}

// Delay returns d rounded down to whole ticks.
func (r Rate) Delay(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	return clamp16(uint64(d) * uint64(r.TickHz) / uint64(time.Second))
}

// Duration is the wall-clock length of n ticks.
func (r Rate) Duration(n uint64) time.Duration {
	if r.TickHz == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(r.TickHz)
}

func clamp16(v uint64) uint16 {
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}
