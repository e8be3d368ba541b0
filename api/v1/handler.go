// Package v1 the version 1 api
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/store/bolt"
)

const (
	debugHeader                      = "X-Debug"
	mimeApplicationNDJSONCharsetUTF8 = "application/x-ndjson; charset=UTF-8"
)

// Options of NewHandler
type Options struct {
	// Scheduler runs the scripts, js.GetScheduler() if nil
	Scheduler js.Scheduler
	// Store the named scripts, may be nil
	Store *bolt.Store
	// Timeout the default run timeout, none if zero
	Timeout time.Duration
	// Logger slog.Default if nil
	Logger *slog.Logger
	// Observe receives the outcome and duration of every run, may be nil
	Observe func(result string, d time.Duration)
}

// Handler serves the v1 routes
type Handler struct {
	scheduler js.Scheduler
	store     *bolt.Store
	timeout   time.Duration
	logger    *slog.Logger
	observe   func(result string, d time.Duration)
}

// NewHandler returns a new Handler
func NewHandler(opt Options) *Handler {
	if opt.Scheduler == nil {
		opt.Scheduler = js.GetScheduler()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Observe == nil {
		opt.Observe = func(string, time.Duration) {}
	}
	return &Handler{
		scheduler: opt.Scheduler,
		store:     opt.Store,
		timeout:   opt.Timeout,
		logger:    opt.Logger,
		observe:   opt.Observe,
	}
}

// RouteRun the run routes
func RouteRun(e *echo.Echo, h *Handler, m ...echo.MiddlewareFunc) {
	run := e.Group("/run", m...)
	run.POST("", h.Run)
	if h.store != nil {
		run.POST("/:name", h.RunStored)
	}
}

// RouteScripts the script store routes
func RouteScripts(e *echo.Echo, h *Handler, m ...echo.MiddlewareFunc) {
	scripts := e.Group("/scripts", m...)
	scripts.GET("", h.ListScripts)
	scripts.GET("/:name", h.GetScript)
	scripts.PUT("/:name", h.PutScript)
	scripts.DELETE("/:name", h.DeleteScript)
}

// responseHandler is a Handler that writes Records to an echo.Response as
// line-delimited JSON objects.
type responseHandler struct {
	level        slog.Leveler
	w            *echo.Response
	attrs, group string
}

// newResponseHandler creates a responseHandler that writes to w,
// using the default options.
func newResponseHandler(res *echo.Response, l slog.Leveler) *responseHandler {
	return &responseHandler{
		level: l,
		w:     res,
	}
}

// Enabled reports whether the handler handles records at the given level.
// The handler ignores records whose level is lower.
func (c *responseHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if c.level != nil {
		minLevel = c.level.Level()
	}
	return l >= minLevel
}

// WithAttrs With returns a new responseHandler whose attributes consists
// of h's attributes followed by attrs.
func (c *responseHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	buf := new(strings.Builder)
	buf.WriteString(c.attrs)
	for _, attr := range attrs {
		buf.WriteString(attr.String())
	}

	return &responseHandler{
		level: c.level,
		w:     c.w,
		group: c.group,
		attrs: buf.String(),
	}
}

// WithGroup returns a new Handler with the given group appended to
// the receiver's existing groups.
func (c *responseHandler) WithGroup(name string) slog.Handler {
	return &responseHandler{
		level: c.level,
		w:     c.w,
		group: name,
		attrs: c.attrs,
	}
}

// Handle formats its argument Record as single line.
// Each call to Handle results in a single serialized call to io.Writer.Write.
func (c *responseHandler) Handle(_ context.Context, r slog.Record) (err error) {
	data := make(map[string]any, r.NumAttrs()+3)
	data["level"] = r.Level.String()
	data["msg"] = r.Message
	if !r.Time.IsZero() {
		data["time"] = r.Time.Format("15:04:05.000")
	}
	if c.attrs != "" {
		data["attrs"] = c.attrs
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if c.group != "" {
			key = c.group + "." + key
		}
		data[key] = a.Value.String()
		return true
	})

	var bytes []byte
	bytes, err = json.Marshal(data)
	if err != nil {
		return
	}

	bytes = append(bytes, '\n')

	_, err = c.w.Write(bytes)
	if err != nil {
		return
	}
	c.w.Flush()
	return
}
