// Package scripts the bundled example scripts
package scripts

import (
	_ "embed"
	"fmt"
	"slices"
)

var (
	// Hello prints a greeting, a sum and the current time
	//go:embed hello.js
	Hello string

	// Mandelbrot renders an 80x25 Mandelbrot set with ANSI colors
	//go:embed mandelbrot.js
	Mandelbrot string
)

var examples = map[string]*string{
	"hello":      &Hello,
	"mandelbrot": &Mandelbrot,
}

// Get returns the source of the named example.
func Get(name string) (string, error) {
	if src, ok := examples[name]; ok {
		return *src, nil
	}
	return "", fmt.Errorf("example %q not found, available: %v", name, Names())
}

// Names returns the example names, sorted.
func Names() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
