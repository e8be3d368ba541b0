package js

import (
	"runtime"
	"time"
)

// DefaultYieldInterval the Yielder gives up the processor at most once per interval
const DefaultYieldInterval = 100 * time.Millisecond

// InterruptHandler is consulted periodically while a script runs.
// Returning true requests termination of the script.
type InterruptHandler interface {
	Interrupt(c *Context) bool
}

// InterruptFunc adapts a function to an InterruptHandler.
type InterruptFunc func(c *Context) bool

// Interrupt calls f(c).
func (f InterruptFunc) Interrupt(c *Context) bool { return f(c) }

// Clock the time source of the host functions and interrupt handlers.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to a Clock.
type ClockFunc func() time.Time

// Now calls f().
func (f ClockFunc) Now() time.Time { return f() }

type monotonicClock struct{ base time.Time }

// NewMonotonicClock returns a Clock reporting wall-clock time that never goes backwards:
// it is anchored to the wall clock once and advanced by the monotonic clock.
func NewMonotonicClock() Clock { return monotonicClock{time.Now()} }

func (m monotonicClock) Now() time.Time { return m.base.Add(time.Since(m.base)) }

// Yielder hands the processor to other goroutines when a script has been
// running for more than Interval since the last yield. It never terminates a script.
// A Yielder belongs to one Runner and must not be shared.
type Yielder struct {
	Interval time.Duration
	Clock    Clock
	Yield    func()

	last time.Time
}

// NewYielder returns a Yielder with the default interval, clock and runtime.Gosched.
func NewYielder() *Yielder {
	return &Yielder{
		Interval: DefaultYieldInterval,
		Clock:    NewMonotonicClock(),
		Yield:    runtime.Gosched,
	}
}

// Interrupt yields if the interval elapsed and always continues the script.
func (y *Yielder) Interrupt(*Context) bool {
	now := y.Clock.Now()
	if now.Sub(y.last) > y.Interval {
		y.Yield()
		y.last = now
	}
	return false
}

// Last returns the time of the last yield.
func (y *Yielder) Last() time.Time { return y.last }

// Deadline terminates the script once the duration has elapsed since Start.
type Deadline struct {
	Clock   Clock
	Timeout time.Duration

	start time.Time
}

// NewDeadline returns a Deadline started now.
func NewDeadline(clock Clock, timeout time.Duration) *Deadline {
	d := &Deadline{Clock: clock, Timeout: timeout}
	d.Start()
	return d
}

// Start resets the deadline to Timeout from now.
func (d *Deadline) Start() { d.start = d.Clock.Now() }

// Interrupt reports whether the deadline has passed.
func (d *Deadline) Interrupt(*Context) bool {
	return d.Timeout > 0 && d.Clock.Now().Sub(d.start) >= d.Timeout
}

// Handlers chains interrupt handlers. Every handler is called in order
// until one of them requests termination.
type Handlers []InterruptHandler

// Interrupt calls each handler and returns true at the first that does.
func (hs Handlers) Interrupt(c *Context) bool {
	for _, h := range hs {
		if h != nil && h.Interrupt(c) {
			return true
		}
	}
	return false
}
