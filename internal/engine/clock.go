package engine

import "sync/atomic"

// Clock is a monotonic logical clock for ordering sends within a session.
//
// Sends are stamped with strictly increasing seq numbers, never wall-clock
// time, so the send log orders the same way however fast messages go out.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset starts the clock over at 0. Process.Start calls it for each new
// session.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
