// Package jstest the test context
package jstest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/shiroyk/mqjs/js"
	"github.com/stretchr/testify/assert"
)

// New returns a test Context over a 64 KiB arena whose log sink writes to out.
// Besides the standard callback table it defines an assert object backed by testify.
// The context and the arena are released when the test ends.
func New(t testing.TB, out *bytes.Buffer) *js.Context {
	t.Helper()

	arena, err := js.NewArena(nil, js.MaxArenaSize)
	if err != nil {
		t.Fatal(err)
	}
	c, err := js.NewContext(arena, js.NewTable(js.NewStdHost()), js.ContextOptions{})
	if err != nil {
		_ = arena.Free()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = c.Close()
		_ = arena.Free()
	})
	if out != nil {
		c.SetLogFunc(func(p []byte) { out.Write(p) })
	}

	rt := c.Runtime()
	assertObject := rt.NewObject()
	_ = assertObject.Set("equal", func(call goja.FunctionCall, vm *goja.Runtime) (ret goja.Value) {
		a, err := js.Unwrap(call.Argument(0))
		if err != nil {
			js.Throw(vm, err)
		}
		b, err := js.Unwrap(call.Argument(1))
		if err != nil {
			js.Throw(vm, err)
		}
		var msg string
		if !goja.IsUndefined(call.Argument(2)) {
			msg = call.Argument(2).String()
		}
		if !assert.Equal(t, b, a, msg) {
			js.Throw(vm, errors.New("not equal"))
		}
		return
	})
	_ = assertObject.Set("true", func(call goja.FunctionCall, vm *goja.Runtime) (ret goja.Value) {
		var msg string
		if !goja.IsUndefined(call.Argument(1)) {
			msg = call.Argument(1).String()
		}
		if !assert.True(t, call.Argument(0).ToBoolean(), msg) {
			js.Throw(vm, errors.New("should be true"))
		}
		return
	})
	_ = rt.Set("assert", assertObject)

	return c
}
