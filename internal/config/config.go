// Package config reads task-set files: the tick rate, the simulated
// machine's speed and the tasks to register, in the order they take their
// slots.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rtos-in-go/kernel"
	"rtos-in-go/port/avr"
)

// Kind selects the body a task runs.
type Kind string

const (
	// Periodic tasks spend Work cycles per activation and then finish.
	Periodic Kind = "periodic"
	// Background tasks never finish; they soak up whatever time is left
	// at their priority.
	Background Kind = "background"
	// Oneshot tasks run once and return, which retires them.
	Oneshot Kind = "oneshot"
)

// Task describes one task of the set.
type Task struct {
	Name     string `yaml:"name"`
	Kind     Kind   `yaml:"kind"`
	Priority uint8  `yaml:"priority"`
	// Frequency is activations per second. Period, in ticks, wins when
	// both are set.
	Frequency uint32        `yaml:"frequency"`
	Period    uint16        `yaml:"period"`
	Offset    time.Duration `yaml:"offset"`
	Stack     int           `yaml:"stack"`
	Work      int           `yaml:"work"`
	// Runs retires a periodic task after that many activations. 0 is
	// unlimited.
	Runs int    `yaml:"runs"`
	Arg  uint16 `yaml:"arg"`
}

// TaskSet is the content of a task-set file.
type TaskSet struct {
	TickRate      uint32 `yaml:"tick_rate"`
	CyclesPerTick uint64 `yaml:"cycles_per_tick"`
	// Arena is the number of bytes reserved for task stacks.
	Arena int `yaml:"arena"`
	// Idle adds a priority 255 task after the configured ones so that
	// dispatch always has something to pick.
	Idle  bool   `yaml:"idle"`
	Tasks []Task `yaml:"tasks"`
}

// DefaultStack is the stack size of tasks that do not set one.
const DefaultStack = 96

// Default returns sensible defaults for an empty set.
func Default() TaskSet {
	return TaskSet{
		TickRate:      1000,
		CyclesPerTick: 16,
		Arena:         1024,
		Idle:          true,
	}
}

// Rate returns the tick rate as a kernel.Rate.
func (s *TaskSet) Rate() kernel.Rate { return kernel.Rate{TickHz: s.TickRate} }

// PeriodOf returns the period of t in ticks.
func (s *TaskSet) PeriodOf(t Task) uint16 {
	if t.Period != 0 {
		return t.Period
	}
	return s.Rate().Period(t.Frequency)
}

// DelayOf returns the initial delay of t in ticks.
func (s *TaskSet) DelayOf(t Task) uint16 { return s.Rate().Delay(t.Offset) }

// Slots is the number of kernel slots the set occupies.
func (s *TaskSet) Slots() int {
	n := len(s.Tasks)
	if s.Idle {
		n++
	}
	return n
}

// Validate reports every problem with the set at once.
func (s *TaskSet) Validate() error {
	var errs []error
	if s.TickRate == 0 {
		errs = append(errs, errors.New("tick_rate must be positive"))
	}
	if s.CyclesPerTick == 0 {
		errs = append(errs, errors.New("cycles_per_tick must be positive"))
	}
	if len(s.Tasks) == 0 {
		errs = append(errs, errors.New("no tasks"))
	}
	if n := s.Slots(); n > kernel.MaxTasks {
		errs = append(errs, fmt.Errorf("%d tasks, at most %d fit", n, kernel.MaxTasks))
	}

	seen := make(map[string]bool)
	need := 0
	if s.Idle {
		need += DefaultStack
	}
	for i, t := range s.Tasks {
		where := fmt.Sprintf("task %d (%s)", i, t.Name)
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("task %d: missing name", i))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", where))
		}
		seen[t.Name] = true

		switch t.Kind {
		case Periodic, Oneshot:
			if s.TickRate != 0 && s.PeriodOf(t) == 0 {
				errs = append(errs, fmt.Errorf("%s: needs a period or a frequency at most tick_rate", where))
			}
		case Background:
			if t.Runs != 0 {
				errs = append(errs, fmt.Errorf("%s: background tasks do not take runs", where))
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", where, t.Kind))
		}
		if t.Offset < 0 {
			errs = append(errs, fmt.Errorf("%s: negative offset", where))
		}
		if t.Work < 0 || t.Runs < 0 {
			errs = append(errs, fmt.Errorf("%s: work and runs must not be negative", where))
		}
		if t.Stack <= avr.FrameSize {
			errs = append(errs, fmt.Errorf("%s: stack %d does not hold a %d byte frame", where, t.Stack, avr.FrameSize))
		}
		need += t.Stack
	}
	if need > s.Arena {
		errs = append(errs, fmt.Errorf("stacks need %d bytes, arena has %d", need, s.Arena))
	}
	return errors.Join(errs...)
}

// Parse decodes a task set, fills in defaults and validates it.
func Parse(data []byte) (*TaskSet, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse task set: %w", err)
	}
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Kind == "" {
			t.Kind = Periodic
		}
		if t.Stack == 0 {
			t.Stack = DefaultStack
		}
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task set: %w", err)
	}
	return &s, nil
}

// Load reads and parses the task-set file at path.
func Load(path string) (*TaskSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task set: %w", err)
	}
	return Parse(data)
}
