package mqjs

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shiroyk/mqjs/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppMainOutput(t *testing.T) {
	t.Parallel()
	out, logs := new(bytes.Buffer), new(bytes.Buffer)
	ctx := js.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil)))

	require.NoError(t, Main(ctx, out))
	assert.Contains(t, logs.String(), "Starting JavaScript runtime...")
	assert.True(t, strings.HasPrefix(out.String(), "Generating Mandelbrot set...\n"))
	assert.Equal(t, 27, strings.Count(out.String(), "\n"))
}

func TestRunScript(t *testing.T) {
	t.Parallel()
	assert.NoError(t, RunScript(context.Background(), `var a = 1 + 2`))
	assert.NoError(t, RunScript(context.Background(), `throw new Error("recovered")`))
}

func TestHello(t *testing.T) {
	t.Parallel()
	out, logs := new(bytes.Buffer), new(bytes.Buffer)
	ctx := js.WithLogger(context.Background(), slog.New(slog.NewTextHandler(logs, nil)))

	require.NoError(t, Hello(ctx, out))
	assert.True(t, strings.HasPrefix(out.String(), "Hello from mquickjs!\n1+2= 3\nTime: "), out.String())
	for _, msg := range []string{"Initializing mquickjs...", "Evaluating script: ", "Hello from mquickjs!", "Script executed successfully.", "Done."} {
		assert.Contains(t, logs.String(), msg)
	}
}
