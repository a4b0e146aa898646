// Package clock provides the millisecond time source read by the CW state machines.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns a monotonic timestamp in milliseconds.
type Clock interface {
	Millis() int64
}

// System is a Clock backed by the runtime's monotonic clock.
// Timestamps count from the moment it was created.
type System struct {
	start time.Time
}

// NewSystem returns a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Millis returns the milliseconds elapsed since NewSystem.
func (s *System) Millis() int64 {
	return time.Since(s.start).Milliseconds()
}

// Manual is a Clock that only moves when told to.
// Used for tests and for offline rendering/decoding where time is simulated.
type Manual struct {
	now atomic.Int64
}

// NewManual returns a Manual clock set to start.
func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Millis returns the current simulated time.
func (m *Manual) Millis() int64 {
	return m.now.Load()
}

// Set moves the clock to t.
func (m *Manual) Set(t int64) {
	m.now.Store(t)
}

// Advance moves the clock forward by d milliseconds and returns the new time.
func (m *Manual) Advance(d int64) int64 {
	return m.now.Add(d)
}
