package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestZeroOr(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, ZeroOr(0, 1))
	assert.Equal(t, "a", ZeroOr("a", "b"))
}

func TestParseSize(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		in   any
		want int
		err  bool
	}{
		{16384, 16384, false},
		{"16384", 16384, false},
		{"16k", 16 * 1024, false},
		{"16KiB", 16 * 1024, false},
		{" 64 KB ", 64 * 1024, false},
		{"1MB", 1024 * 1024, false},
		{"10b", 10, false},
		{int64(42), 42, false},
		{"lots", 0, true},
		{"1.5k", 0, true},
	}
	for _, tc := range testCases {
		got, err := ParseSize(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestReadYaml(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "conf.yml")
	require.NoError(t, os.WriteFile(file, []byte("name: mqjs\nsize: 3\n"), 0o600))

	type conf struct {
		Name string `yaml:"name"`
		Size int    `yaml:"size"`
	}
	c, err := ReadYaml[conf](file)
	require.NoError(t, err)
	assert.Equal(t, conf{"mqjs", 3}, *c)

	_, err = ReadYaml[conf](filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandPath(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	p, err := ExpandPath("~/.config/mqjs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/mqjs"), p)

	p, err = ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", p)
}

func TestSize(t *testing.T) {
	t.Parallel()
	var conf struct {
		A Size `yaml:"a"`
		B Size `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 32K\nb: 2048\n"), &conf))
	assert.Equal(t, Size(32*1024), conf.A)
	assert.Equal(t, Size(2048), conf.B)
	assert.Error(t, yaml.Unmarshal([]byte("a: lots\n"), &conf))

	var s Size
	require.NoError(t, s.Decode("1MB"))
	assert.Equal(t, Size(1024*1024), s)
	assert.Error(t, s.Decode("1XB"))
}
