package js

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }
func newFakeClock() *fakeClock               { return &fakeClock{time.Unix(1_700_000_000, 0)} }

func TestYielder(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	yields := 0
	y := &Yielder{Interval: 100 * time.Millisecond, Clock: clock, Yield: func() { yields++ }}

	assert.False(t, y.Interrupt(nil))
	assert.Equal(t, 1, yields, "first call yields")
	assert.Equal(t, clock.now, y.Last())

	clock.Advance(50 * time.Millisecond)
	assert.False(t, y.Interrupt(nil))
	assert.Equal(t, 1, yields)

	clock.Advance(51 * time.Millisecond)
	assert.False(t, y.Interrupt(nil))
	assert.Equal(t, 2, yields)
	assert.Equal(t, clock.now, y.Last())

	clock.Advance(100 * time.Millisecond)
	assert.False(t, y.Interrupt(nil))
	assert.Equal(t, 2, yields, "exactly one interval is not more than the interval")

	clock.Advance(time.Millisecond)
	assert.False(t, y.Interrupt(nil))
	assert.Equal(t, 3, yields)
}

func TestYielderIndependent(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	var n1, n2 int
	y1 := &Yielder{Interval: 100 * time.Millisecond, Clock: clock, Yield: func() { n1++ }}
	y2 := &Yielder{Interval: 100 * time.Millisecond, Clock: clock, Yield: func() { n2++ }}

	y1.Interrupt(nil)
	y2.Interrupt(nil)
	clock.Advance(200 * time.Millisecond)
	y1.Interrupt(nil)

	assert.Equal(t, 2, n1)
	assert.Equal(t, 1, n2)
}

func TestDeadline(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	d := NewDeadline(clock, time.Second)

	assert.False(t, d.Interrupt(nil))
	clock.Advance(999 * time.Millisecond)
	assert.False(t, d.Interrupt(nil))
	clock.Advance(time.Millisecond)
	assert.True(t, d.Interrupt(nil))

	d.Start()
	assert.False(t, d.Interrupt(nil))

	assert.False(t, NewDeadline(clock, 0).Interrupt(nil), "zero timeout never expires")
}

func TestHandlers(t *testing.T) {
	t.Parallel()
	var calls []string
	handler := func(name string, stop bool) InterruptHandler {
		return InterruptFunc(func(*Context) bool {
			calls = append(calls, name)
			return stop
		})
	}

	assert.False(t, Handlers{handler("a", false), nil, handler("b", false)}.Interrupt(nil))
	assert.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	assert.True(t, Handlers{handler("a", true), handler("b", false)}.Interrupt(nil))
	assert.Equal(t, []string{"a"}, calls)
}

func TestMonotonicClock(t *testing.T) {
	t.Parallel()
	clock := NewMonotonicClock()
	prev := clock.Now().UnixMilli()
	for i := 0; i < 1000; i++ {
		now := clock.Now().UnixMilli()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
	assert.InDelta(t, time.Now().UnixMilli(), prev, 1000)
}
