package js

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dop251/goja"
)

const (
	// DefaultPollInterval how often the interrupt handler is consulted during evaluation
	DefaultPollInterval = 10 * time.Millisecond
	// stackFrameSize arena bytes budgeted for one call frame
	stackFrameSize = 64
)

var (
	// ErrContextClosed the context was used after Close
	ErrContextClosed = errors.New("context closed")
	// ErrInterrupted the interrupt handler requested termination
	ErrInterrupted = errors.New("interrupted")
)

// EvalFlag controls how Eval compiles and runs a script.
type EvalFlag uint8

const (
	// EvalStrict force 'use strict'
	EvalStrict EvalFlag = 1 << iota
	// EvalRetval keep the completion value of the script
	EvalRetval
)

// LogFunc receives everything the engine prints on its own account,
// long-form value dumps and exception reports.
type LogFunc func(p []byte)

// Context an engine execution environment bound to one Arena and one Table.
// A Context can only be used by a single goroutine at a time.
type Context struct {
	rt        *goja.Runtime
	arena     *Arena
	log       LogFunc
	interrupt InterruptHandler
	poll      time.Duration
	closed    bool
}

// ContextOptions optional settings of NewContext.
type ContextOptions struct {
	// PollInterval how often the interrupt handler is called, DefaultPollInterval if zero
	PollInterval time.Duration
}

// NewContext creates a Context over the arena and installs the callback table.
// The arena must stay alive until Close returns.
func NewContext(arena *Arena, table Table, opt ContextOptions) (*Context, error) {
	if arena == nil || arena.Freed() {
		return nil, ErrArenaReleased
	}

	c := &Context{
		rt:    goja.New(),
		arena: arena,
		log:   func([]byte) {},
		poll:  opt.PollInterval,
	}
	if c.poll <= 0 {
		c.poll = DefaultPollInterval
	}
	c.rt.SetMaxCallStackSize(arena.Size() / stackFrameSize)

	if err := table.install(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Runtime returns the underlying goja runtime.
func (c *Context) Runtime() *goja.Runtime { return c.rt }

// Arena returns the arena the context was created over.
func (c *Context) Arena() *Arena { return c.arena }

// SetLogFunc sets the sink for engine output. A nil fn discards it.
func (c *Context) SetLogFunc(fn LogFunc) {
	if fn == nil {
		fn = func([]byte) {}
	}
	c.log = fn
}

// SetInterruptHandler sets the handler consulted periodically during Eval.
func (c *Context) SetInterruptHandler(h InterruptHandler) { c.interrupt = h }

// Write sends p to the log sink.
func (c *Context) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrContextClosed
	}
	c.log(p)
	return len(p), nil
}

// PrintValue writes the long form of v to the log sink.
func (c *Context) PrintValue(v goja.Value) {
	if c.closed {
		return
	}
	_, _ = c.Write([]byte(Dump(c.rt, v)))
}

// GC forces a collection cycle.
func (c *Context) GC() {
	if c.closed {
		return
	}
	runtime.GC()
}

// Eval compiles and runs source. The returned error is non-nil when the script
// raised an exception, was interrupted, or could not be staged into the arena;
// Exception turns it into its printable form.
func (c *Context) Eval(ctx context.Context, source, filename string, flags EvalFlag) (ret goja.Value, err error) {
	if c.closed {
		return nil, ErrContextClosed
	}

	// the source lives in the arena for the duration of the evaluation
	staged, err := c.arena.Alloc(len(source))
	if err != nil {
		return nil, err
	}
	copy(staged, source)
	defer c.arena.Reset()

	program, err := goja.Compile(filename, string(staged), flags&EvalStrict != 0)
	if err != nil {
		return nil, err
	}

	// resets the interrupt flag.
	c.rt.ClearInterrupt()
	done, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(stopped)
		c.watch(ctx, done)
	}()
	defer func() {
		close(done)
		<-stopped
	}()

	defer func() {
		if r := recover(); r != nil {
			stack := c.rt.CaptureCallStack(20, nil)
			buf := new(bytes.Buffer)
			for _, frame := range stack {
				frame.Write(buf)
				buf.WriteByte('\n')
			}
			Logger(ctx).Error(fmt.Sprintf("native panic during evaluation: %v", r),
				"stack", string(debug.Stack()), "js stack", buf.String())
			ret, err = nil, fmt.Errorf("native panic: %v", r)
		}
	}()

	ret, err = c.rt.RunProgram(program)
	if flags&EvalRetval == 0 {
		ret = goja.Undefined()
	}
	return ret, err
}

// watch consults the interrupt handler until done is closed,
// and interrupts the script when ctx is cancelled.
func (c *Context) watch(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			// Interrupt running JavaScript.
			c.rt.Interrupt(ctx.Err())
			return
		case <-ticker.C:
			if c.interrupt != nil && c.interrupt.Interrupt(c) {
				c.rt.Interrupt(ErrInterrupted)
				return
			}
		}
	}
}

// Exception returns the long form of an evaluation error.
func (c *Context) Exception(err error) string {
	var (
		ex  *goja.Exception
		ie  *goja.InterruptedError
		syn *goja.CompilerSyntaxError
	)
	switch {
	case errors.As(err, &ex):
		return Dump(c.rt, ex.Value())
	case errors.As(err, &ie):
		return fmt.Sprintf("InterruptedError: %v", ie.Value())
	case errors.As(err, &syn):
		if msg := syn.Error(); strings.HasPrefix(msg, "SyntaxError") {
			return msg
		}
		return "SyntaxError: " + syn.Error()
	case errors.Is(err, ErrOutOfMemory):
		return "InternalError: out of memory"
	default:
		return "InternalError: " + err.Error()
	}
}

// PrintException writes the long form of err followed by a newline to the log sink.
func (c *Context) PrintException(err error) {
	_, _ = c.Write([]byte(c.Exception(err) + "\n"))
}

// Close destroys the context. The arena is not released; that is the owner's job.
func (c *Context) Close() error {
	if c.closed {
		return ErrContextClosed
	}
	c.closed = true
	c.rt.ClearInterrupt()
	c.rt = nil
	c.interrupt = nil
	return nil
}
