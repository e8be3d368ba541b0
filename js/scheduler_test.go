package js

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer a bytes.Buffer safe for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestScheduler(t *testing.T) {
	t.Parallel()
	out := new(syncBuffer)
	scheduler := NewScheduler(SchedulerOptions{
		InitialRunners: 2,
		MaxRunners:     4,
		Runner:         RunnerOptions{Output: out},
	})
	defer scheduler.Close()
	goroutineNum := 12
	blockNum := 4
	wg := new(sync.WaitGroup)

	for i := 1; i <= goroutineNum; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			timeout := time.Millisecond * 400
			script := "1"
			if i < blockNum {
				script = `while(true){}`
				timeout *= 2
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			res, err := scheduler.Run(ctx, script)
			if err != nil {
				t.Errorf("scheduler %v: %v", i, err)
				return
			}
			if script == "1" && res.Failed() {
				t.Errorf("run string %v: %v", i, res.Exception)
			}
		}(i)
	}
	wg.Wait()
}

func TestSchedulerShrink(t *testing.T) {
	t.Parallel()
	scheduler := NewScheduler(SchedulerOptions{InitialRunners: 2, MaxRunners: 4})
	scheduler.Shrink()
	assert.Equal(t, `{"available":0,"max":4,"unInit":4}`, scheduler.(fmt.Stringer).String())
	start := time.Now()
	_, _ = scheduler.Get()
	_, _ = scheduler.Get()
	took := time.Since(start)
	assert.Equal(t, `{"available":0,"max":4,"unInit":2}`, scheduler.(fmt.Stringer).String())
	assert.True(t, took < time.Millisecond*600)
}

func TestSchedulerExhausted(t *testing.T) {
	t.Parallel()
	scheduler := NewScheduler(SchedulerOptions{
		MaxRunners:             1,
		MaxRetriesGetRunner:    1,
		MaxTimeToWaitGetRunner: 20 * time.Millisecond,
	})
	r, err := scheduler.Get()
	require.NoError(t, err)

	_, err = scheduler.Get()
	assert.ErrorIs(t, err, ErrNoRunner)

	scheduler.Release(r)
	got, err := scheduler.Get()
	require.NoError(t, err)
	assert.Same(t, r, got)
}

func TestSchedulerClose(t *testing.T) {
	t.Parallel()
	scheduler := NewScheduler(SchedulerOptions{InitialRunners: 1, MaxRunners: 1})
	r, err := scheduler.Get()
	require.NoError(t, err)

	require.NoError(t, scheduler.Close())
	assert.ErrorIs(t, scheduler.Close(), ErrSchedulerClosed)
	scheduler.Release(r)

	_, err = scheduler.Get()
	assert.ErrorIs(t, err, ErrSchedulerClosed)
	_, err = scheduler.Run(context.Background(), "1")
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}

func TestDefaultScheduler(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, GetScheduler())
}
