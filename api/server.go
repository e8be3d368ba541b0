// Package api the HTTP api
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	v1 "github.com/shiroyk/mqjs/api/v1"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/store/bolt"
)

const (
	// DefaultTimeout the default timeout
	DefaultTimeout = time.Minute
	// DefaultAddress the api default address
	DefaultAddress = "localhost:8080"
	// DefaultBodyLimit the largest accepted script
	DefaultBodyLimit = "64K"
)

// Options the api server configuration
type Options struct {
	Logger  *slog.Logger  `yaml:"-" json:"-" ignored:"true"`
	Token   string        `yaml:"token" json:"token" split_words:"true"`
	Address string        `yaml:"address" json:"address" split_words:"true"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" split_words:"true"`
	// RateLimit runs per second accepted from one client, unlimited if zero
	RateLimit float64 `yaml:"rate-limit" json:"rateLimit" split_words:"true"`
	// Metrics serves prometheus metrics on /metrics
	Metrics bool `yaml:"metrics" json:"metrics" split_words:"true"`
}

// Server the api service. The store may be nil, the script routes are not registered then.
func Server(opt Options, scheduler js.Scheduler, store *bolt.Store) *echo.Echo {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	e := echo.New()
	e.HTTPErrorHandler = errorHandler(opt.Logger)
	e.HideBanner = true
	e.HidePort = true

	handlerOpt := v1.Options{
		Scheduler: scheduler,
		Store:     store,
		Timeout:   opt.Timeout,
		Logger:    opt.Logger,
	}
	e.Use(middleware.Recover(), requestIDMiddleware(), loggerMiddleware(opt))
	if opt.Metrics {
		metrics := NewMetrics()
		e.Use(metrics.Middleware())
		e.GET("/metrics", metrics.Handler())
		handlerOpt.Observe = metrics.ObserveRun
	}
	e.Any("/ping", ping)
	e.Any("", ping)

	auth := authMiddleware(opt)
	h := v1.NewHandler(handlerOpt)
	runMiddleware := []echo.MiddlewareFunc{auth, middleware.BodyLimit(DefaultBodyLimit)}
	if opt.RateLimit > 0 {
		runMiddleware = append(runMiddleware, rateLimitMiddleware(opt))
	}
	v1.RouteRun(e, h, runMiddleware...)
	if store != nil {
		v1.RouteScripts(e, h, auth, middleware.BodyLimit(DefaultBodyLimit))
	}
	return e
}

func errorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= http.StatusInternalServerError {
			log.Error("request error", "error", err, "path", c.Path())
		}

		if err = c.JSON(code, map[string]string{"msg": msg}); err != nil {
			log.Error("write response error", "error", err)
		}
	}
}

func ping(ctx echo.Context) error {
	return ctx.NoContent(http.StatusOK)
}
