package kernel

import (
	"errors"
	"fmt"
)

// StackPaint fills unused stack so HighWater can find how deep a task went.
const StackPaint = 0xa5

var ErrArenaExhausted = errors.New("kernel: stack arena exhausted")

// Arena hands out task stacks from a fixed block of memory. There is no
// free: stacks live as long as the program.
type Arena struct {
	mem  []byte
	used int
}

// NewArena returns an arena over mem, painted with StackPaint.
func NewArena(mem []byte) *Arena {
	memset(mem, StackPaint)
	return &Arena{mem: mem}
}

// Alloc returns the next n bytes of the arena.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n <= 0 || a.used+n > len(a.mem) {
		return nil, fmt.Errorf("alloc %d bytes (%d of %d used): %w", n, a.used, len(a.mem), ErrArenaExhausted)
	}
	s := a.mem[a.used : a.used+n : a.used+n]
	a.used += n
	return s, nil
}

// Used returns the number of bytes handed out.
func (a *Arena) Used() int { return a.used }

// Free returns the number of bytes left.
func (a *Arena) Free() int { return len(a.mem) - a.used }

// HighWater returns how many bytes at the top of stack have been written
// since it was painted. Stacks grow down, so the untouched paint is at the
// bottom.
func HighWater(stack []byte) int {
	i := 0
	for i < len(stack) && stack[i] == StackPaint {
		i++
	}
	return len(stack) - i
}

func memset(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}
