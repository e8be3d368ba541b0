package js

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxTimeToWaitGetRunner default retries time
	DefaultMaxTimeToWaitGetRunner = 500 * time.Millisecond
	// DefaultMaxRetriesGetRunner default retries times
	DefaultMaxRetriesGetRunner = 3
)

var (
	// ErrSchedulerClosed the scheduler is closed error
	ErrSchedulerClosed = errors.New("scheduler is closed")
	// ErrNoRunner every runner stayed busy for all the retries
	ErrNoRunner = errors.New("could not get runner")
)

var _scheduler = new(atomic.Value)

func init() {
	_scheduler.Store(NewScheduler(SchedulerOptions{
		MaxRunners: uint(runtime.GOMAXPROCS(0)),
	}))
}

// SetScheduler set the default Scheduler
func SetScheduler(scheduler Scheduler) { _scheduler.Store(scheduler) }

// GetScheduler get the default Scheduler
func GetScheduler() Scheduler { return _scheduler.Load().(Scheduler) }

// Scheduler a bounded pool of Runners
type Scheduler interface {
	// Get a Runner, it must be given back with Release
	Get() (*Runner, error)
	// Release gives the Runner back to the pool
	Release(*Runner)
	// Run gets a Runner, runs the source and releases the Runner
	Run(ctx context.Context, source string) (Result, error)
	// Shrink drops the idle Runners
	Shrink()
	// Close the scheduler
	Close() error
}

// SchedulerOptions options
type SchedulerOptions struct {
	InitialRunners         uint          `yaml:"initial-runners" json:"initialRunners" split_words:"true"`
	MaxRunners             uint          `yaml:"max-runners" json:"maxRunners" split_words:"true"`
	MaxRetriesGetRunner    uint          `yaml:"max-retries-get-runner" json:"maxRetriesGetRunner" split_words:"true"`
	MaxTimeToWaitGetRunner time.Duration `yaml:"max-time-to-wait-get-runner" json:"maxTimeToWaitGetRunner" split_words:"true"`
	Runner                 RunnerOptions `yaml:"runner" json:"runner" envconfig:"RUNNER"`
}

// NewScheduler returns a new Scheduler
func NewScheduler(opt SchedulerOptions) Scheduler {
	s := &schedulerImpl{
		closed:                 new(atomic.Bool),
		unInitRunners:          new(atomic.Int32),
		maxRunners:             opt.MaxRunners,
		maxRetriesGetRunner:    opt.MaxRetriesGetRunner,
		maxTimeToWaitGetRunner: opt.MaxTimeToWaitGetRunner,
		runnerOpt:              opt.Runner,
	}
	if s.maxRunners == 0 {
		s.maxRunners = 1
	}
	if s.maxRetriesGetRunner == 0 {
		s.maxRetriesGetRunner = DefaultMaxRetriesGetRunner
	}
	if s.maxTimeToWaitGetRunner == 0 {
		s.maxTimeToWaitGetRunner = DefaultMaxTimeToWaitGetRunner
	}
	s.maxRunners = max(s.maxRunners, opt.InitialRunners)
	s.runners = make(chan *Runner, s.maxRunners)
	for i := uint(0); i < opt.InitialRunners; i++ {
		s.runners <- s.newRunner()
	}
	s.unInitRunners.Store(int32(s.maxRunners - opt.InitialRunners))
	return s
}

type schedulerImpl struct {
	runners                         chan *Runner
	maxRunners, maxRetriesGetRunner uint
	unInitRunners                   *atomic.Int32
	closed                          *atomic.Bool
	maxTimeToWaitGetRunner          time.Duration
	runnerOpt                       RunnerOptions
	mu                              sync.RWMutex // guards sends against close
}

func (s *schedulerImpl) newRunner() *Runner { return NewRunner(s.runnerOpt) }

func (s *schedulerImpl) String() string {
	text, _ := s.MarshalText()
	return string(text)
}

func (s *schedulerImpl) MarshalText() ([]byte, error) {
	return json.Marshal(map[string]any{
		"available": len(s.runners),
		"max":       int(s.maxRunners),
		"unInit":    int(s.unInitRunners.Load()),
	})
}

// Close the scheduler
func (s *schedulerImpl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return ErrSchedulerClosed
	}
	close(s.runners)
	return nil
}

// Get the Runner
func (s *schedulerImpl) Get() (*Runner, error) {
	if s.closed.Load() {
		return nil, ErrSchedulerClosed
	}

	// fast path: an idle runner is available
	select {
	case r, ok := <-s.runners:
		if !ok {
			return nil, ErrSchedulerClosed
		}
		return r, nil
	default:
	}

	if s.unInitRunners.Add(-1) >= 0 {
		return s.newRunner(), nil
	}
	s.unInitRunners.Add(1)

	timer := time.NewTimer(s.maxTimeToWaitGetRunner)
	defer timer.Stop()

	for i := uint(1); i <= s.maxRetriesGetRunner; i++ {
		select {
		case r, ok := <-s.runners:
			if !ok {
				return nil, ErrSchedulerClosed
			}
			return r, nil
		case <-timer.C:
			if s.unInitRunners.Add(-1) >= 0 {
				return s.newRunner(), nil
			}
			s.unInitRunners.Add(1)
			slog.Warn(fmt.Sprintf("could not get runner in %v", time.Duration(i)*s.maxTimeToWaitGetRunner))
			timer.Reset(s.maxTimeToWaitGetRunner)
		}
	}
	return nil, fmt.Errorf("%w in %v", ErrNoRunner,
		time.Duration(s.maxRetriesGetRunner)*s.maxTimeToWaitGetRunner)
}

// Run the source on a pooled Runner
func (s *schedulerImpl) Run(ctx context.Context, source string) (Result, error) {
	r, err := s.Get()
	if err != nil {
		return Result{}, err
	}
	defer s.Release(r)
	return r.Run(ctx, source)
}

// Shrink drops the idle Runners, they will be created again on demand
func (s *schedulerImpl) Shrink() {
	for {
		select {
		case _, ok := <-s.runners:
			if !ok {
				return
			}
			s.unInitRunners.Add(1)
		default:
			return
		}
	}
}

// Release the Runner
func (s *schedulerImpl) Release(r *Runner) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r == nil || s.closed.Load() {
		return
	}
	select {
	case s.runners <- r:
	default:
		// the pool is full, the runner came from elsewhere
	}
}
