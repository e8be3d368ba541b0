package js

import (
	"bytes"
	"math/big"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

const (
	// MaxDumpDepth nesting deeper than this prints as [...]
	MaxDumpDepth = 4
	// MaxDumpItems array elements after this many print as "... N more items"
	MaxDumpItems = 100
)

// Dump returns the long form of the value, the way the engine prints
// values that are not plain strings.
func Dump(rt *goja.Runtime, v goja.Value) string {
	d := dumper{rt: rt, seen: make(map[*goja.Object]struct{})}
	if ex := catch(func() { d.value(v, 0) }); ex != nil {
		d.exception(ex)
	}
	return d.buf.String()
}

// catch runs fn and returns the JavaScript exception it threw, if any.
// Accessors, proxies and toString overrides run script code while dumping.
func catch(fn func()) (ex *goja.Exception) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*goja.Exception)
			if !ok {
				panic(r)
			}
			ex = e
		}
	}()
	fn()
	return nil
}

type dumper struct {
	rt   *goja.Runtime
	buf  bytes.Buffer
	seen map[*goja.Object]struct{}
}

func (d *dumper) exception(ex *goja.Exception) {
	d.buf.WriteString("[Exception: ")
	d.buf.WriteString(ex.Value().String())
	d.buf.WriteByte(']')
}

// get returns the property, or nil with the exception its getter threw.
func (d *dumper) get(obj *goja.Object, key string) (v goja.Value, ex *goja.Exception) {
	ex = catch(func() { v = obj.Get(key) })
	return
}

// property writes the property value, or the exception raised reading it.
func (d *dumper) property(obj *goja.Object, key string, depth int) {
	v, ex := d.get(obj, key)
	if ex != nil {
		d.exception(ex)
		return
	}
	d.value(v, depth)
}

func (d *dumper) value(v goja.Value, depth int) {
	switch {
	case v == nil, goja.IsUndefined(v):
		d.buf.WriteString("undefined")
		return
	case goja.IsNull(v):
		d.buf.WriteString("null")
		return
	}

	if obj, ok := v.(*goja.Object); ok {
		d.object(obj, depth)
		return
	}

	switch x := v.Export().(type) {
	case string:
		d.buf.WriteString(strconv.Quote(x))
	case *big.Int:
		d.buf.WriteString(x.String())
		d.buf.WriteByte('n')
	default:
		d.buf.WriteString(v.String())
	}
}

func (d *dumper) object(obj *goja.Object, depth int) {
	if _, ok := d.seen[obj]; ok {
		d.buf.WriteString("[circular]")
		return
	}

	switch obj.ClassName() {
	case "Error":
		d.error(obj)
		return
	case "Function":
		d.buf.WriteString("[Function")
		if name, _ := d.get(obj, "name"); name != nil && name.String() != "" {
			d.buf.WriteByte(' ')
			d.buf.WriteString(name.String())
		}
		d.buf.WriteByte(']')
		return
	case "Date", "RegExp", "String", "Number", "Boolean":
		d.buf.WriteString(obj.String())
		return
	}

	if depth >= MaxDumpDepth {
		d.buf.WriteString("[...]")
		return
	}

	d.seen[obj] = struct{}{}
	defer delete(d.seen, obj)

	if obj.ClassName() == "Array" {
		d.array(obj, depth)
		return
	}

	keys := obj.Keys()
	if len(keys) == 0 {
		d.buf.WriteString("{}")
		return
	}
	d.buf.WriteString("{ ")
	for i, key := range keys {
		if i > 0 {
			d.buf.WriteString(", ")
		}
		d.buf.WriteString(key)
		d.buf.WriteString(": ")
		d.property(obj, key, depth+1)
	}
	d.buf.WriteString(" }")
}

// array prints at most MaxDumpItems elements, runs of holes as "<N empty items>".
func (d *dumper) array(obj *goja.Object, depth int) {
	length := obj.Get("length").ToInteger()
	if length == 0 {
		d.buf.WriteString("[]")
		return
	}
	shown := min(length, MaxDumpItems)
	items, holes := 0, int64(0)
	sep := func() {
		if items > 0 {
			d.buf.WriteString(", ")
		}
		items++
	}
	flush := func() {
		if holes == 0 {
			return
		}
		sep()
		d.buf.WriteByte('<')
		d.buf.WriteString(strconv.FormatInt(holes, 10))
		if holes == 1 {
			d.buf.WriteString(" empty item>")
		} else {
			d.buf.WriteString(" empty items>")
		}
		holes = 0
	}

	d.buf.WriteString("[ ")
	for i := int64(0); i < shown; i++ {
		v, ex := d.get(obj, strconv.FormatInt(i, 10))
		if v == nil && ex == nil {
			holes++
			continue
		}
		flush()
		sep()
		if ex != nil {
			d.exception(ex)
		} else {
			d.value(v, depth+1)
		}
	}
	flush()
	if rest := length - shown; rest > 0 {
		sep()
		d.buf.WriteString("... ")
		d.buf.WriteString(strconv.FormatInt(rest, 10))
		if rest == 1 {
			d.buf.WriteString(" more item")
		} else {
			d.buf.WriteString(" more items")
		}
	}
	d.buf.WriteString(" ]")
}

// error prints "Name: message" followed by the stack, if any.
func (d *dumper) error(obj *goja.Object) {
	var header string
	if ex := catch(func() { header = obj.String() }); ex != nil {
		d.exception(ex)
		return
	}
	stack, _ := d.get(obj, "stack")
	if stack == nil || goja.IsUndefined(stack) || goja.IsNull(stack) {
		d.buf.WriteString(header)
		return
	}
	s := strings.TrimRight(stack.String(), "\n")
	if !strings.HasPrefix(s, header) {
		d.buf.WriteString(header)
		d.buf.WriteByte('\n')
	}
	d.buf.WriteString(s)
}
