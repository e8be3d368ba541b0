package js

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Function a native function exposed to scripts.
// call.This is the receiver and call.Arguments the arguments;
// errors are raised with Throw.
type Function func(c *Context, call goja.FunctionCall) goja.Value

// Host provides the native functions the engine's global surface expects.
type Host interface {
	// Print implements print(...args)
	Print(c *Context, call goja.FunctionCall) goja.Value
	// DateNow implements Date.now()
	DateNow(c *Context, call goja.FunctionCall) goja.Value
	// PerformanceNow implements performance.now()
	PerformanceNow(c *Context, call goja.FunctionCall) goja.Value
	// GC implements gc()
	GC(c *Context, call goja.FunctionCall) goja.Value
	// Load implements load(path)
	Load(c *Context, call goja.FunctionCall) goja.Value
	// SetTimeout implements setTimeout(fn, ms)
	SetTimeout(c *Context, call goja.FunctionCall) goja.Value
	// ClearTimeout implements clearTimeout(id)
	ClearTimeout(c *Context, call goja.FunctionCall) goja.Value
}

type entry struct {
	name string
	fn   Function
}

// Table the callback table: global function names bound to native functions.
// A Table is immutable once built and may be shared by any number of contexts.
type Table struct {
	entries []entry
}

// NewTable builds the callback table from the host.
func NewTable(host Host) Table {
	return Table{entries: []entry{
		{"print", host.Print},
		{"Date.now", host.DateNow},
		{"performance.now", host.PerformanceNow},
		{"gc", host.GC},
		{"load", host.Load},
		{"setTimeout", host.SetTimeout},
		{"clearTimeout", host.ClearTimeout},
	}}
}

// Names returns the global names in install order.
func (t Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.name
	}
	return names
}

// Lookup returns the function bound to name.
func (t Table) Lookup(name string) (Function, bool) {
	for _, e := range t.entries {
		if e.name == name {
			return e.fn, true
		}
	}
	return nil, false
}

// install defines every entry on the global object of the context.
// A dotted name "a.b" sets property b of global a, creating a when missing.
func (t Table) install(c *Context) error {
	global := c.rt.GlobalObject()
	for _, e := range t.entries {
		target, prop := global, e.name
		if parent, name, ok := strings.Cut(e.name, "."); ok {
			prop = name
			v := global.Get(parent)
			if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
				target = c.rt.NewObject()
				if err := global.Set(parent, target); err != nil {
					return fmt.Errorf("define %s: %w", parent, err)
				}
			} else {
				target = v.ToObject(c.rt)
			}
		}

		fn := e.fn
		value := c.rt.ToValue(func(call goja.FunctionCall) goja.Value {
			return fn(c, call)
		}).(*goja.Object)
		// stack traces show the property name instead of the Go closure
		if err := value.DefineDataProperty("name", c.rt.ToValue(prop),
			goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return fmt.Errorf("name %s: %w", e.name, err)
		}

		if err := target.Set(prop, value); err != nil {
			return fmt.Errorf("define %s: %w", e.name, err)
		}
	}
	return nil
}
