package search

import "sync/atomic"

// Clock is a monotonic logical clock for event ordering.
//
// Every event of a search is stamped with a strictly increasing sequence
// number from this clock. Never use wall-clock time for ordering.
//
// Clock is safe for concurrent use, though a search only ever calls Next
// from one goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
