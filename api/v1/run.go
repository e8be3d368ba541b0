package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/store/bolt"
	"github.com/spf13/cast"
)

// RunResult the response of the run routes
type RunResult struct {
	// Output everything print and the exception report wrote
	Output string `json:"output"`
	// Exception the long form of the uncaught exception
	Exception string `json:"exception,omitempty"`
	// Value the completion value of the script
	Value any `json:"value,omitempty"`
}

// Run evaluates the request body.
func (h *Handler) Run(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty script")
	}
	return h.run(c, string(body))
}

// RunStored evaluates the named script from the store.
func (h *Handler) RunStored(c echo.Context) error {
	source, err := h.store.Get(c.Param("name"))
	if err != nil {
		return storeError(err)
	}
	return h.run(c, source)
}

func (h *Handler) run(c echo.Context, source string) error {
	timeout := h.timeout
	if t := c.QueryParam("timeout"); t != "" {
		d, err := cast.ToDurationE(t)
		if err != nil || d < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid timeout "+t)
		}
		timeout = d
	}

	ctx := c.Request().Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	debug := c.Request().Header.Get(debugHeader) != ""
	logger := h.logger
	if debug {
		c.Response().Header().Set(echo.HeaderContentType, mimeApplicationNDJSONCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		logger = slog.New(newResponseHandler(c.Response(), slog.LevelDebug))
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		logger = logger.With("request_id", id)
	}

	output := new(bytes.Buffer)
	ctx = js.WithOutput(js.WithLogger(ctx, logger), output)
	start := time.Now()
	res, err := h.scheduler.Run(ctx, source)
	h.observe(outcome(res, err), time.Since(start))
	if err != nil {
		if debug {
			logger.Error("run failed", "error", err)
			return nil
		}
		if errors.Is(err, js.ErrAllocation) || errors.Is(err, js.ErrNoRunner) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return err
	}

	result := RunResult{
		Output:    output.String(),
		Exception: res.Exception,
		Value:     res.Value,
	}
	if !debug {
		return c.JSON(http.StatusOK, result)
	}

	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if _, err = c.Response().Write(append(b, '\n')); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}

func outcome(res js.Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Failed():
		return "exception"
	default:
		return "ok"
	}
}

func storeError(err error) error {
	switch {
	case errors.Is(err, bolt.ErrScriptNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, bolt.ErrInvalidName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
