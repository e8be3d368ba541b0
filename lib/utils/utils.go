// Package utils the common helpers
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ZeroOr if value is zero value returns the defaultValue
func ZeroOr[T comparable](value, defaultValue T) T {
	var zero T
	if zero == value {
		return defaultValue
	}
	return value
}

// ExpandPath expands path "." or "~"
func ExpandPath(path string) (string, error) {
	// expand local directory
	if strings.HasPrefix(path, ".") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path[1:]), nil
	}
	// expand ~ as shortcut for home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ReadYaml read the YAML file and convert it to T
func ReadYaml[T any](path string) (t *T, err error) {
	path, err = ExpandPath(path)
	if err != nil {
		return
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return
	}

	t = new(T)
	err = yaml.Unmarshal(bytes, t)
	if err != nil {
		return nil, err
	}

	return
}

// Size a byte size read from configuration as a number or a string such as "32K".
type Size int

// UnmarshalYAML parses the node with ParseSize.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	n, err := ParseSize(raw)
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}

// Decode parses an environment value with ParseSize.
func (s *Size) Decode(value string) error {
	n, err := ParseSize(value)
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}

var sizeUnits = []struct {
	suffix string
	scale  int
}{
	{"kib", 1024}, {"kb", 1024}, {"k", 1024},
	{"mib", 1024 * 1024}, {"mb", 1024 * 1024}, {"m", 1024 * 1024},
	{"b", 1},
}

// ParseSize converts a byte size to int. It accepts numbers and strings
// such as "16384", "16k", "16KiB" or "1MB"; units are powers of 1024.
func ParseSize(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToIntE(v)
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, unit := range sizeUnits {
		if num, found := strings.CutSuffix(s, unit.suffix); found {
			n, err := cast.ToIntE(strings.TrimSpace(num))
			if err != nil {
				return 0, fmt.Errorf("invalid size %q: %w", v, err)
			}
			return n * unit.scale, nil
		}
	}
	n, err := cast.ToIntE(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", v, err)
	}
	return n, nil
}
