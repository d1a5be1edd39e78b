package kernel

import (
	"errors"
	"testing"
	"time"
)

func TestArenaAlloc(t *testing.T) {
	var mem [100]byte
	a := NewArena(mem[:])

	s1, err := a.Alloc(40)
	if err != nil {
		t.Fatalf("Alloc(40) error = %v", err)
	}
	s2, err := a.Alloc(60)
	if err != nil {
		t.Fatalf("Alloc(60) error = %v", err)
	}
	if len(s1) != 40 || len(s2) != 60 {
		t.Errorf("lengths %d %d, want 40 60", len(s1), len(s2))
	}
	if &s2[0] != &mem[40] {
		t.Errorf("second stack does not follow the first")
	}
	if cap(s1) != 40 {
		t.Errorf("cap(s1) = %d, appending would run into the next stack", cap(s1))
	}
	if a.Used() != 100 || a.Free() != 0 {
		t.Errorf("Used %d Free %d", a.Used(), a.Free())
	}

	if _, err := a.Alloc(1); !errors.Is(err, ErrArenaExhausted) {
		t.Errorf("Alloc past the end error = %v, want ErrArenaExhausted", err)
	}
	if _, err := a.Alloc(0); !errors.Is(err, ErrArenaExhausted) {
		t.Errorf("Alloc(0) error = %v, want ErrArenaExhausted", err)
	}
}

func TestHighWater(t *testing.T) {
	var mem [64]byte
	a := NewArena(mem[:])
	stack, _ := a.Alloc(64)

	if got := HighWater(stack); got != 0 {
		t.Errorf("fresh stack HighWater() = %d, want 0", got)
	}
	for i := 50; i < 64; i++ {
		stack[i] = 0
	}
	if got := HighWater(stack); got != 14 {
		t.Errorf("HighWater() = %d, want 14", got)
	}
	stack[0] = 1
	if got := HighWater(stack); got != 64 {
		t.Errorf("overflowed stack HighWater() = %d, want 64", got)
	}
}

func TestRate(t *testing.T) {
	r := Rate{TickHz: 1000}

	tests := []struct {
		freq uint32
		want uint16
	}{
		{1, 1000},
		{100, 10},
		{3, 333},
		{2000, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := r.Period(tt.freq); got != tt.want {
			t.Errorf("Period(%d Hz) = %d, want %d", tt.freq, got, tt.want)
		}
	}

	if got := r.Delay(5 * time.Millisecond); got != 5 {
		t.Errorf("Delay(5ms) = %d, want 5", got)
	}
	if got := r.Delay(1500 * time.Microsecond); got != 1 {
		t.Errorf("Delay(1.5ms) = %d, want 1", got)
	}
	if got := r.Delay(-time.Second); got != 0 {
		t.Errorf("Delay(-1s) = %d, want 0", got)
	}
	if got := r.Delay(time.Hour); got != 0xffff {
		t.Errorf("Delay(1h) = %d, want clamp to 0xffff", got)
	}
	if got := r.Duration(250); got != 250*time.Millisecond {
		t.Errorf("Duration(250) = %v, want 250ms", got)
	}
	if got := (Rate{}).Period(10); got != 0 {
		t.Errorf("zero rate Period() = %d", got)
	}
}
