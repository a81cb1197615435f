package starlark

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeroisme/badvpn/internal/testutil"
	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
	"go.starlark.net/starlark"
)

func newTestContext(t *testing.T, opts ...ContextOption) *ExecutionContext {
	t.Helper()
	opts = append([]ContextOption{WithLogger(testutil.NewTestLogger(t))}, opts...)
	return NewContext(stringindex.New(), opts...)
}

func TestNewContext(t *testing.T) {
	ctx := newTestContext(t, WithVars(map[string]string{"iface": "eth0"}))

	globals := ctx.Globals()
	assert.Contains(t, globals, ModuleName)
	assert.Equal(t, starlark.String("eth0"), globals["iface"])
	assert.Equal(t, []string{"iface", "ncd"}, ctx.GlobalNames())
}

func TestParseArgs(t *testing.T) {
	ctx := newTestContext(t)

	tests := []struct {
		name      string
		src       string
		wantCount int
		wantErr   bool
	}{
		{name: "empty", src: "", wantCount: 0},
		{name: "blank", src: "  \n", wantCount: 0},
		{name: "single", src: `"a"`, wantCount: 1},
		{name: "several", src: `"a", 1, [2, 3]`, wantCount: 3},
		{name: "parenthesized tuple is one argument", src: `("a", "b")`, wantCount: 1},
		{name: "trailing comma", src: `"a", "b",`, wantCount: 2},
		{name: "syntax error", src: `"a" +`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := ctx.ParseArgs("test", tt.src)
			if tt.wantErr {
				var evalErr *EvalError
				require.ErrorAs(t, err, &evalErr)
				assert.Equal(t, -1, evalErr.Arg)
				assert.Contains(t, err.Error(), "error parsing arguments")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, args.Count())
		})
	}
}

func TestEvalFuncArgs(t *testing.T) {
	ctx := newTestContext(t, WithVars(map[string]string{"iface": "eth0"}))
	mem := val.NewMem(ctx.Index)

	args, err := ctx.ParseArgs("test", `iface, "x" * 2, 3 + 4, True, None, [iface, ncd.concat("a", "b")]`)
	require.NoError(t, err)

	list, err := valueutils.EvalFuncArgs(args, mem)
	require.NoError(t, err)
	assert.Equal(t, `{"eth0", "xx", "7", "true", "<none>", {"eth0", "ab"}}`, list.String())

	assert.True(t, valueutils.ReadBoolean(list.ListGet(3)))
	assert.True(t, valueutils.IsNone(list.ListGet(4)))
	assert.True(t, list.ListGet(5).ListGet(1).IsComposedString())

	n, err := valueutils.ReadUintmax(list.ListGet(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}

func TestEvalFuncArgsExtRange(t *testing.T) {
	ctx := newTestContext(t)
	mem := val.NewMem(ctx.Index)

	args, err := ctx.ParseArgs("test", `fail("argument 0"), "one", "two"`)
	require.NoError(t, err)

	list, err := valueutils.EvalFuncArgsExt(args, 1, 2, mem)
	require.NoError(t, err)
	assert.Equal(t, `{"one", "two"}`, list.String())
}

func TestEvalFuncArgsStopsAtFirstFailure(t *testing.T) {
	ctx := newTestContext(t)
	mem := val.NewMem(ctx.Index)

	// Each argument prints its index; the log records what was evaluated.
	var evaluated []string
	ctx.pool = NewThreadPool(1, nil)
	thread := ctx.pool.Get("")
	thread.Print = func(_ *starlark.Thread, msg string) { evaluated = append(evaluated, msg) }
	ctx.pool.Put(thread)

	args, err := ctx.ParseArgs("test", `print("0") or "a", print("1") or "b", print("2") or fail("boom"), print("3") or "d"`)
	require.NoError(t, err)

	list, err := valueutils.EvalFuncArgsExt(args, 1, 3, mem)
	assert.True(t, list.IsInvalid())
	assert.Equal(t, []string{"1", "2"}, evaluated)

	var argErr *valueutils.ArgError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, 2, argErr.Index)

	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, 2, evalErr.Arg)
	assert.Contains(t, evalErr.Message, "boom")
	assert.Contains(t, err.Error(), "test:1:")
}

func TestEvalUnsupportedResult(t *testing.T) {
	ctx := newTestContext(t)
	mem := val.NewMem(ctx.Index)

	args, err := ctx.ParseArgs("test", `{"a": 1}`)
	require.NoError(t, err)

	_, err = args.EvalArg(0, mem)
	assert.ErrorContains(t, err, "unsupported type: dict")
}

func TestMaxSteps(t *testing.T) {
	ctx := newTestContext(t, WithMaxSteps(1000))
	mem := val.NewMem(ctx.Index)

	args, err := ctx.ParseArgs("test", `len([x for x in range(100000)]), len([x for x in range(10)])`)
	require.NoError(t, err)

	_, err = args.EvalArg(0, mem)
	assert.Error(t, err)

	r, err := args.EvalArg(1, mem)
	require.NoError(t, err)
	assert.True(t, r.StringEquals("10"))
}

func TestSetGlobal(t *testing.T) {
	ctx := newTestContext(t)
	mem := val.NewMem(ctx.Index)

	list := mem.NewList(2)
	require.NoError(t, mem.ListAppend(list, mem.NewString([]byte("10"))))
	require.NoError(t, mem.ListAppend(list, mem.NewComposedString(val.SegmentsOf("2", "0"))))
	require.NoError(t, ctx.SetGlobal("vals", list))

	assert.Error(t, ctx.SetGlobal(ModuleName, list))
	assert.ErrorContains(t, ctx.SetGlobal("lambda", list), "reserved word")

	args, err := ctx.ParseArgs("test", `vals[0], vals[1], ncd.read_uint(vals[1]) + 1`)
	require.NoError(t, err)

	out, err := valueutils.EvalFuncArgs(args, val.NewMem(ctx.Index))
	require.NoError(t, err)
	assert.Equal(t, `{"10", "20", "21"}`, out.String())
	assert.True(t, out.ListGet(1).IsComposedString())
}

func TestEvalErrorFormat(t *testing.T) {
	tests := []struct {
		err  *EvalError
		want string
	}{
		{&EvalError{File: "f", Arg: -1, Message: "bad"}, "f: error parsing arguments: bad"},
		{&EvalError{File: "f", Arg: 2, Message: "bad"}, "f: error evaluating argument 2: bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}

	var target *EvalError
	wrapped := fmt.Errorf("outer: %w", &EvalError{File: "f", Arg: 0})
	assert.True(t, errors.As(wrapped, &target))
}
