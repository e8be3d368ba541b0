package js

import (
	"strconv"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	t.Parallel()
	rt := goja.New()

	testCases := []struct {
		script string
		want   string
	}{
		{"undefined", "undefined"},
		{"null", "null"},
		{"true", "true"},
		{"3", "3"},
		{"1.5", "1.5"},
		{"'str'", `"str"`},
		{"[]", "[]"},
		{"({})", "{}"},
		{"[1, 'a', null]", `[ 1, "a", null ]`},
		{"({a: 1, b: 'x'})", `{ a: 1, b: "x" }`},
		{"({a: {b: [1]}})", "{ a: { b: [ 1 ] } }"},
		{"[[[[[1]]]]]", "[ [ [ [ [...] ] ] ] ]"},
		{"var o = {}; o.self = o; o", "{ self: [circular] }"},
		{"(function foo() {})", "[Function foo]"},
		{"[function () {}]", "[ [Function] ]"},
		{"[1, , 3]", "[ 1, <1 empty item>, 3 ]"},
		{"[1, , , 4, ]", "[ 1, <2 empty items>, 4 ]"},
		{"var a = []; a.length = 1e7; a", "[ <100 empty items>, ... 9999900 more items ]"},
		{"({get a() { throw new Error('g') }, b: 1})", "{ a: [Exception: Error: g], b: 1 }"},
		{"var a = [1]; Object.defineProperty(a, 1, {get() { throw 'no' }}); a", "[ 1, [Exception: no] ]"},
	}

	for _, c := range testCases {
		t.Run(c.script, func(t *testing.T) {
			v, err := rt.RunString(c.script)
			require.NoError(t, err)
			assert.Equal(t, c.want, Dump(rt, v))
		})
	}
}

func TestDumpMaxItems(t *testing.T) {
	t.Parallel()
	rt := goja.New()
	require.NoError(t, rt.Set("n", MaxDumpItems+2))
	v, err := rt.RunString(`Array.from({length: n}, function (_, i) { return i })`)
	require.NoError(t, err)

	items := make([]string, MaxDumpItems)
	for i := range items {
		items[i] = strconv.Itoa(i)
	}
	want := "[ " + strings.Join(items, ", ") + ", ... 2 more items ]"
	assert.Equal(t, want, Dump(rt, v))
}

func TestDumpError(t *testing.T) {
	t.Parallel()
	rt := goja.New()

	v, err := rt.RunString(`new TypeError("bad value")`)
	require.NoError(t, err)
	assert.Contains(t, Dump(rt, v), "TypeError: bad value")

	v, err = rt.RunString(`var e = new Error("no stack"); delete e.stack; e`)
	require.NoError(t, err)
	assert.Contains(t, Dump(rt, v), "Error: no stack")
}
