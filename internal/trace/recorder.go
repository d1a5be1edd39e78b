// Package trace records scheduling decisions and exports them: a per-tick
// timeline for the terminal, a SQLite database and a Gantt chart.
package trace

import (
	"github.com/google/uuid"
)

// Kind is the kind of an Event.
type Kind string

const (
	Promote  Kind = "promote"
	Dispatch Kind = "dispatch"
)

// Event is one scheduling decision. Prev and Next are only set for
// dispatches, Slot only for promotions.
type Event struct {
	Seq     int
	Tick    uint64
	Kind    Kind
	Slot    int
	Prev    int
	Next    int
	Elapsed bool
}

// Recorder implements kernel.Tracer by appending to an in-memory log. Its
// methods run on the machine's task threads; read it only while the
// machine is paused or halted.
type Recorder struct {
	RunID  string
	Events []Event
}

// NewRecorder returns an empty recorder with a fresh run ID.
func NewRecorder() *Recorder {
	return &Recorder{RunID: "run_" + uuid.New().String()}
}

func (r *Recorder) Promoted(tick uint64, slot int) {
	r.Events = append(r.Events, Event{Seq: len(r.Events), Tick: tick, Kind: Promote, Slot: slot, Prev: -1, Next: -1})
}

func (r *Recorder) Dispatched(tick uint64, prev, next int, elapsed bool) {
	r.Events = append(r.Events, Event{
		Seq: len(r.Events), Tick: tick, Kind: Dispatch, Slot: -1,
		Prev: prev, Next: next, Elapsed: elapsed,
	})
}

// Since returns the events recorded after the first n.
func (r *Recorder) Since(n int) []Event {
	if n >= len(r.Events) {
		return nil
	}
	return r.Events[n:]
}

// Timeline returns, for every tick seen, the slots that held the processor
// during it in the order they got it.
func (r *Recorder) Timeline() [][]int {
	var rows [][]int
	for _, e := range r.Events {
		if e.Kind != Dispatch {
			continue
		}
		for uint64(len(rows)) <= e.Tick {
			rows = append(rows, nil)
		}
		row := rows[e.Tick]
		if n := len(row); n > 0 && row[n-1] == e.Next {
			continue
		}
		rows[e.Tick] = append(row, e.Next)
	}
	return rows
}

// Switches counts dispatches that changed the running task.
func (r *Recorder) Switches() int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == Dispatch && e.Prev != e.Next {
			n++
		}
	}
	return n
}
