package js

import (
	"io"
	"log/slog"

	"github.com/dop251/goja"
)

// StdHost the standard host functions.
// Embed it to override part of the callback table.
type StdHost struct {
	// Stdout receives the strings passed to print. When nil they
	// go to the context log sink along with the value dumps.
	Stdout io.Writer
	// Clock source of Date.now and performance.now
	Clock Clock
	// Logger reports write failures, slog.Default if nil
	Logger *slog.Logger
}

// NewStdHost returns a StdHost printing through the context log sink.
func NewStdHost() *StdHost {
	return &StdHost{Clock: NewMonotonicClock()}
}

var _ Host = (*StdHost)(nil)

func (h *StdHost) write(c *Context, p []byte) {
	var err error
	if h.Stdout != nil {
		_, err = h.Stdout.Write(p)
	} else {
		_, err = c.Write(p)
	}
	if err != nil {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Debug("print write failed", "error", err)
	}
}

// Print writes string arguments as raw bytes and anything else in long form,
// separated by a space and followed by a newline.
func (h *StdHost) Print(c *Context, call goja.FunctionCall) goja.Value {
	space, newline := []byte{' '}, []byte{'\n'}
	for i, arg := range call.Arguments {
		if i != 0 {
			h.write(c, space)
		}
		if s, ok := arg.Export().(string); ok {
			h.write(c, []byte(s))
			continue
		}
		if h.Stdout != nil {
			h.write(c, []byte(Dump(c.Runtime(), arg)))
		} else {
			c.PrintValue(arg)
		}
	}
	h.write(c, newline)
	return goja.Undefined()
}

var defaultClock = NewMonotonicClock()

func (h *StdHost) now() int64 {
	if h.Clock == nil {
		return defaultClock.Now().UnixMilli()
	}
	return h.Clock.Now().UnixMilli()
}

// DateNow returns the milliseconds since the epoch.
func (h *StdHost) DateNow(c *Context, _ goja.FunctionCall) goja.Value {
	return c.Runtime().ToValue(h.now())
}

// PerformanceNow returns the milliseconds since the epoch.
func (h *StdHost) PerformanceNow(c *Context, _ goja.FunctionCall) goja.Value {
	return c.Runtime().ToValue(h.now())
}

// GC forces a collection.
func (h *StdHost) GC(c *Context, _ goja.FunctionCall) goja.Value {
	c.GC()
	return goja.Undefined()
}

// Load is not supported and does nothing.
func (h *StdHost) Load(*Context, goja.FunctionCall) goja.Value { return goja.Undefined() }

// SetTimeout is not supported: the callback is never scheduled.
func (h *StdHost) SetTimeout(*Context, goja.FunctionCall) goja.Value { return goja.Undefined() }

// ClearTimeout is not supported and does nothing.
func (h *StdHost) ClearTimeout(*Context, goja.FunctionCall) goja.Value { return goja.Undefined() }
