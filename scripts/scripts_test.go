package scripts

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shiroyk/mqjs/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string) string {
	t.Helper()
	out := new(bytes.Buffer)
	res, err := js.NewRunner(js.RunnerOptions{Output: out}).Run(context.Background(), source)
	require.NoError(t, err)
	require.False(t, res.Failed(), res.Exception)
	return out.String()
}

func TestNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"hello", "mandelbrot"}, Names())

	src, err := Get("hello")
	require.NoError(t, err)
	assert.Equal(t, Hello, src)

	_, err = Get("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestHello(t *testing.T) {
	t.Parallel()
	lines := strings.Split(strings.TrimSuffix(run(t, Hello), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Hello from mquickjs!", lines[0])
	assert.Equal(t, "1+2= 3", lines[1])
	assert.Regexp(t, `^Time: \d{13,}$`, lines[2])
}

func TestMandelbrot(t *testing.T) {
	t.Parallel()
	lines := strings.Split(strings.TrimSuffix(run(t, Mandelbrot), "\n"), "\n")
	require.Len(t, lines, 27)
	assert.Equal(t, "Generating Mandelbrot set...", lines[0])
	for _, line := range lines[1:26] {
		assert.Equal(t, 80, strings.Count(line, "▀"))
		assert.True(t, strings.HasPrefix(line, "\x1b["))
		assert.True(t, strings.HasSuffix(line, "\x1b[0m"))
	}
	assert.Regexp(t, `^Time: \d+ms$`, lines[26])
}
