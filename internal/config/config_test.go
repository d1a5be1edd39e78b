package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sample = `
tick_rate: 1000
cycles_per_tick: 8
arena: 512
tasks:
  - name: sensor
    priority: 1
    frequency: 250
    offset: 2ms
    work: 3
  - name: logger
    kind: periodic
    priority: 2
    period: 10
    stack: 64
    runs: 4
  - name: boot
    kind: oneshot
    priority: 0
    period: 1
    arg: 0x1234
  - name: spinner
    kind: background
    priority: 200
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if s.TickRate != 1000 || s.CyclesPerTick != 8 || s.Arena != 512 {
		t.Errorf("header = %+v", s)
	}
	if !s.Idle {
		t.Errorf("idle default lost")
	}
	if s.Slots() != 5 {
		t.Errorf("Slots() = %d, want 5", s.Slots())
	}

	tests := []struct {
		name   string
		kind   Kind
		period uint16
		delay  uint16
		stack  int
	}{
		{"sensor", Periodic, 4, 2, DefaultStack},
		{"logger", Periodic, 10, 0, 64},
		{"boot", Oneshot, 1, 0, DefaultStack},
		{"spinner", Background, 0, 0, DefaultStack},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := s.Tasks[i]
			if task.Name != tt.name || task.Kind != tt.kind {
				t.Errorf("task = %s/%s, want %s/%s", task.Name, task.Kind, tt.name, tt.kind)
			}
			if got := s.PeriodOf(task); got != tt.period {
				t.Errorf("PeriodOf() = %d, want %d", got, tt.period)
			}
			if got := s.DelayOf(task); got != tt.delay {
				t.Errorf("DelayOf() = %d, want %d", got, tt.delay)
			}
			if task.Stack != tt.stack {
				t.Errorf("Stack = %d, want %d", task.Stack, tt.stack)
			}
		})
	}
	if s.Tasks[0].Offset != 2*time.Millisecond {
		t.Errorf("Offset = %v, want 2ms", s.Tasks[0].Offset)
	}
	if s.Tasks[2].Arg != 0x1234 {
		t.Errorf("Arg = %#x, want 0x1234", s.Tasks[2].Arg)
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("tasks:\n  - name: a\n    period: 5\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	d := Default()
	if s.TickRate != d.TickRate || s.CyclesPerTick != d.CyclesPerTick || s.Arena != d.Arena {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"no tasks", "tasks: []", []string{"no tasks"}},
		{"zero tick rate", "tick_rate: 0\ntasks:\n  - {name: a, period: 1}", []string{"tick_rate"}},
		{"missing name", "tasks:\n  - {period: 1}", []string{"missing name"}},
		{"duplicate", "tasks:\n  - {name: a, period: 1}\n  - {name: a, period: 2}", []string{"duplicate name"}},
		{"unknown kind", "tasks:\n  - {name: a, kind: sporadic, period: 1}", []string{`unknown kind "sporadic"`}},
		{"frequency above tick rate", "tasks:\n  - {name: a, frequency: 5000}", []string{"needs a period"}},
		{"stack too small", "tasks:\n  - {name: a, period: 1, stack: 35}", []string{"does not hold"}},
		{"arena too small", "arena: 100\ntasks:\n  - {name: a, period: 1}", []string{"arena has 100"}},
		{"background runs", "tasks:\n  - {name: a, kind: background, runs: 2}", []string{"do not take runs"}},
		{
			"several at once",
			"tasks:\n  - {name: a, kind: x}\n  - {name: a, period: 1, stack: 10}",
			[]string{"unknown kind", "duplicate name", "does not hold"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() succeeded, want errors %v", tt.want)
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %q", err, w)
				}
			}
		})
	}
}

func TestValidateTooManyTasks(t *testing.T) {
	s := Default()
	s.Arena = 1 << 16
	for i := 0; i < 16; i++ {
		s.Tasks = append(s.Tasks, Task{Name: string(rune('a' + i)), Kind: Periodic, Period: 1, Stack: DefaultStack})
	}
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "at most 16") {
		t.Errorf("Validate() = %v, want table overflow with the idle slot", err)
	}
	s.Idle = false
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() without idle = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.Tasks) != 4 {
		t.Errorf("len(Tasks) = %d, want 4", len(s.Tasks))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load() of a missing file succeeded")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("tasks: [name: {"), 0o644)
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "parse task set") {
		t.Errorf("Load() of bad yaml = %v", err)
	}
}

func TestExampleTaskSet(t *testing.T) {
	s, err := Load(filepath.Join("..", "..", "cmd", "rtsim", "tasks.yaml"))
	if err != nil {
		t.Fatalf("Load(example) error = %v", err)
	}
	if s.Slots() != 6 {
		t.Errorf("Slots() = %d, want 6", s.Slots())
	}
	if got := s.DelayOf(s.Tasks[3]); got != 5 {
		t.Errorf("telemetry delay = %d, want 5", got)
	}
}
