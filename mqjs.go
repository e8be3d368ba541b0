// Package mqjs runs JavaScript programs with a small fixed memory arena per
// run: arena, context, evaluation, exception report, teardown.
package mqjs

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/scripts"
)

// RunScript evaluates source on a runner of the default scheduler, each run
// over a fresh arena. An uncaught exception is printed and recovered; the error
// is non-nil only when no runner was available or the arena could not be allocated.
func RunScript(ctx context.Context, source string) error {
	_, err := js.GetScheduler().Run(ctx, source)
	return err
}

// Main logs the start banner and runs the Mandelbrot example, writing to out.
func Main(ctx context.Context, out io.Writer) error {
	js.Logger(ctx).Info("Starting JavaScript runtime...")
	_, err := js.NewRunner(js.RunnerOptions{Output: out}).Run(ctx, scripts.Mandelbrot)
	return err
}

// Hello runs the hello example over a MaxArenaSize arena, writing to out
// and logging each step.
func Hello(ctx context.Context, out io.Writer) error {
	logger := js.Logger(ctx)
	logger.Info("Initializing mquickjs...")
	logger.Info("Evaluating script: " + scripts.Hello)

	res, err := js.NewRunner(js.RunnerOptions{ArenaSize: js.MaxArenaSize, Output: out}).Run(ctx, scripts.Hello)
	if err != nil {
		return err
	}
	if !res.Failed() {
		logger.Info("Script executed successfully.")
	}
	logger.Info("Done.")
	return nil
}

// AppMain the program entry: Main with the default logger and os.Stdout.
func AppMain() {
	if err := Main(context.Background(), os.Stdout); err != nil {
		slog.Error("run failed", "error", err)
	}
}
