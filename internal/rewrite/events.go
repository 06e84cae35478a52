package rewrite

import "sync/atomic"

// EventKind distinguishes the graph changes a driver reports.
type EventKind string

const (
	// EventRewrite is a pattern that reported a rewrite.
	EventRewrite EventKind = "rewrite"
	// EventErase is a trivially dead operation erased by the driver.
	EventErase EventKind = "erase"
)

// Event describes one graph change made during Apply.
type Event struct {
	RunID   string
	Seq     int64 // logical order within the run, starting at 1
	Kind    EventKind
	Pattern string // empty for EventErase
	OpName  string // kind of the operation that was matched or erased
}

// Observer receives events synchronously, in order, from the driver loop.
type Observer func(Event)

// Clock is a monotonic logical clock for ordering events within a run.
// Sequence numbers never come from wall-clock time, so replaying the same
// input yields the same numbering.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
