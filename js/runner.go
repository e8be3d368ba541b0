package js

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/shiroyk/mqjs/lib/utils"
)

// DefaultFilename the source name reported in stack traces
const DefaultFilename = "<input>"

// ErrAllocation the arena could not be allocated, nothing was run
var ErrAllocation = errors.New("failed to allocate memory")

// State the lifecycle stage of one Runner.Run call.
type State uint8

const (
	// StateIdle nothing is allocated
	StateIdle State = iota
	// StateAllocated the arena is reserved
	StateAllocated
	// StateRunning the context exists and the script is being evaluated
	StateRunning
	// StateReported the outcome has been reported
	StateReported
	// StateFreed the context is destroyed and the arena released
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAllocated:
		return "allocated"
	case StateRunning:
		return "running"
	case StateReported:
		return "reported"
	case StateFreed:
		return "freed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// RunnerOptions options of NewRunner
type RunnerOptions struct {
	// ArenaSize bytes reserved for each run, DefaultArenaSize if zero
	ArenaSize utils.Size `yaml:"arena-size" json:"arenaSize" split_words:"true"`
	// PollInterval how often the interrupt handler runs, DefaultPollInterval if zero
	PollInterval time.Duration `yaml:"poll-interval" json:"pollInterval" split_words:"true"`
	// YieldInterval minimum time between two cooperative yields, DefaultYieldInterval if zero
	YieldInterval time.Duration `yaml:"yield-interval" json:"yieldInterval" split_words:"true"`
	// Timeout terminates scripts running longer, no limit if zero
	Timeout time.Duration `yaml:"timeout" json:"timeout" split_words:"true"`
	// Strict evaluates scripts in strict mode
	Strict bool `yaml:"strict" json:"strict" split_words:"true"`
	// Filename the source name, DefaultFilename if empty
	Filename string `yaml:"filename" json:"filename" split_words:"true"`

	Allocator Allocator        `yaml:"-" json:"-" ignored:"true"` // arena allocator, Go heap if nil
	Host      Host             `yaml:"-" json:"-" ignored:"true"` // host functions, StdHost if nil
	Output    io.Writer        `yaml:"-" json:"-" ignored:"true"` // print and report output, os.Stdout if nil
	Interrupt InterruptHandler `yaml:"-" json:"-" ignored:"true"` // extra interrupt handler
	OnState   func(State)      `yaml:"-" json:"-" ignored:"true"` // observes state transitions
}

// Result the outcome of a run.
type Result struct {
	// Value the exported completion value of the script
	Value any
	// Exception the long form of the uncaught exception, empty if none
	Exception string
}

// Failed reports whether the script ended with an uncaught exception.
func (r Result) Failed() bool { return r.Exception != "" }

// Runner evaluates scripts, each in a fresh arena and context.
// A Runner runs one script at a time; concurrent calls to Run are serialized.
type Runner struct {
	mu      sync.Mutex
	opt     RunnerOptions
	table   Table
	yielder *Yielder
	clock   Clock
}

// NewRunner returns a new Runner
func NewRunner(opt RunnerOptions) *Runner {
	if opt.ArenaSize == 0 {
		opt.ArenaSize = DefaultArenaSize
	}
	if opt.YieldInterval <= 0 {
		opt.YieldInterval = DefaultYieldInterval
	}
	if opt.Filename == "" {
		opt.Filename = DefaultFilename
	}
	if opt.Output == nil {
		opt.Output = os.Stdout
	}
	if opt.Host == nil {
		opt.Host = NewStdHost()
	}

	clock := NewMonotonicClock()
	yielder := NewYielder()
	yielder.Interval = opt.YieldInterval
	yielder.Clock = clock

	return &Runner{
		opt:     opt,
		table:   NewTable(opt.Host),
		yielder: yielder,
		clock:   clock,
	}
}

// Options returns the resolved options.
func (r *Runner) Options() RunnerOptions { return r.opt }

// Yielder returns the cooperative-yield handler of the runner.
func (r *Runner) Yielder() *Yielder { return r.yielder }

func (r *Runner) setState(s State) {
	if r.opt.OnState != nil {
		r.opt.OnState(s)
	}
}

func (r *Runner) handler() InterruptHandler {
	hs := Handlers{r.yielder}
	if r.opt.Timeout > 0 {
		hs = append(hs, NewDeadline(r.clock, r.opt.Timeout))
	}
	if r.opt.Interrupt != nil {
		hs = append(hs, r.opt.Interrupt)
	}
	return hs
}

type outputKey struct{}

// WithOutput overrides, for runs under ctx, where print output and
// exception reports are written.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func (r *Runner) output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}
	return r.opt.Output
}

// Run evaluates source. An uncaught exception is printed to the output and
// returned in Result; the error is non-nil only when the script could not be
// started. The arena is always released before Run returns.
func (r *Runner) Run(ctx context.Context, source string) (res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := Logger(ctx)
	r.setState(StateIdle)

	arena, err := NewArena(r.opt.Allocator, int(r.opt.ArenaSize))
	if err != nil {
		logger.Error("failed to allocate memory", "size", r.opt.ArenaSize, "error", err)
		return res, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	r.setState(StateAllocated)

	var c *Context
	defer func() {
		if c != nil {
			if e := c.Close(); e != nil {
				logger.Warn("failed to close context", "error", e)
			}
		}
		if e := arena.Free(); e != nil {
			logger.Warn("failed to free arena", "error", e)
		}
		r.setState(StateFreed)
	}()

	c, err = NewContext(arena, r.table, ContextOptions{PollInterval: r.opt.PollInterval})
	if err != nil {
		logger.Error("failed to create context", "error", err)
		return res, err
	}
	out := r.output(ctx)
	c.SetLogFunc(func(p []byte) { _, _ = out.Write(p) })
	c.SetInterruptHandler(r.handler())
	r.setState(StateRunning)

	flags := EvalRetval
	if r.opt.Strict {
		flags |= EvalStrict
	}
	value, evalErr := c.Eval(ctx, source, r.opt.Filename, flags)
	if evalErr != nil {
		res.Exception = c.Exception(evalErr)
		_, _ = c.Write([]byte(res.Exception + "\n"))
		logger.Debug("script raised an exception", "exception", res.Exception)
	} else if value != nil && !goja.IsUndefined(value) {
		if res.Value, err = Unwrap(value); err != nil {
			res.Value, err = value.Export(), nil
		}
	}
	r.setState(StateReported)

	return res, nil
}

// RunString evaluates source with a default Runner writing to os.Stdout.
func RunString(ctx context.Context, source string) (Result, error) {
	return NewRunner(RunnerOptions{}).Run(ctx, source)
}
