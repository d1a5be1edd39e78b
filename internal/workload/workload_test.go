package workload

import (
	"errors"
	"testing"
	"time"

	"rtos-in-go/internal/config"
	"rtos-in-go/kernel"
)

func testSet() *config.TaskSet {
	s := config.Default()
	s.Tasks = []config.Task{
		{Name: "sensor", Kind: config.Periodic, Priority: 1, Period: 4, Work: 3, Stack: 64},
		{Name: "logger", Kind: config.Periodic, Priority: 2, Period: 5, Offset: time.Millisecond, Work: 2, Runs: 2, Stack: 64},
		{Name: "boot", Kind: config.Oneshot, Priority: 0, Period: 1, Stack: 64},
		{Name: "spinner", Kind: config.Background, Priority: 100, Arg: 7, Stack: 64},
	}
	return &s
}

func TestBuildAndRun(t *testing.T) {
	sys, err := Build(testSet(), nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if sys.Kernel.Len() != 5 || !sys.Kernel.Started() {
		t.Fatalf("Len() = %d started %v", sys.Kernel.Len(), sys.Kernel.Started())
	}
	if err := sys.Advance(20); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	rep := sys.Report()
	sys.Halt()

	tests := []struct {
		name        string
		activations int
		state       kernel.State
	}{
		{"sensor", 5, kernel.Done},
		{"logger", 2, kernel.Dead},
		{"boot", 1, kernel.Dead},
		{"spinner", 1, kernel.Running},
		{IdleName, 0, kernel.Ready},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rep[i]
			if r.Name != tt.name {
				t.Fatalf("slot %d = %s, want %s", i, r.Name, tt.name)
			}
			if r.Activations != tt.activations {
				t.Errorf("Activations = %d, want %d", r.Activations, tt.activations)
			}
			if r.State != tt.state {
				t.Errorf("State = %v, want %v", r.State, tt.state)
			}
			if r.HighWater <= 0 || r.HighWater > r.StackSize {
				t.Errorf("HighWater = %d of %d", r.HighWater, r.StackSize)
			}
		})
	}
	if rep[0].Cycles != 15 {
		t.Errorf("sensor Cycles = %d, want 15", rep[0].Cycles)
	}
	if rep[3].Arg != 7 {
		t.Errorf("spinner Arg = %d, want 7", rep[3].Arg)
	}
	if rep[1].Delay > rep[1].Period {
		t.Errorf("logger delay %d above period %d", rep[1].Delay, rep[1].Period)
	}
	if used := sys.Arena.Used(); used != 4*64+config.DefaultStack {
		t.Errorf("Arena.Used() = %d", used)
	}
}

func TestIdleRunsWhenNothingElseIsDue(t *testing.T) {
	s := config.Default()
	s.Tasks = []config.Task{{Name: "slow", Kind: config.Periodic, Priority: 1, Period: 10, Work: 1, Stack: 64}}
	sys, err := Build(&s, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer sys.Halt()

	if err := sys.Advance(3); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	idle := sys.Stats(1)
	if idle.Activations != 1 || idle.Cycles == 0 {
		t.Errorf("idle stats = %+v", idle)
	}
	if sys.Kernel.Current() != 1 {
		t.Errorf("Current() = %d, want idle", sys.Kernel.Current())
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("arena", func(t *testing.T) {
		s := testSet()
		s.Arena = 100
		if _, err := Build(s, nil, nil); !errors.Is(err, kernel.ErrArenaExhausted) {
			t.Errorf("Build() error = %v, want ErrArenaExhausted", err)
		}
	})
	t.Run("stack", func(t *testing.T) {
		s := testSet()
		s.Tasks[0].Stack = 20
		if _, err := Build(s, nil, nil); !errors.Is(err, kernel.ErrStackTooSmall) {
			t.Errorf("Build() error = %v, want ErrStackTooSmall", err)
		}
	})
}
