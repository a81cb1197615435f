package starlark

import (
	"fmt"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// ModuleName is the global the builtin module is bound to.
const ModuleName = "ncd"

// keywords are the Starlark keywords and the Python keywords Starlark
// reserves. None of them can name a global.
var keywords = map[string]bool{
	"and": true, "break": true, "continue": true, "def": true, "elif": true,
	"else": true, "for": true, "if": true, "in": true, "lambda": true,
	"load": true, "not": true, "or": true, "pass": true, "return": true,
	"while": true,

	"as": true, "assert": true, "async": true, "await": true, "class": true,
	"del": true, "except": true, "finally": true, "from": true, "global": true,
	"import": true, "is": true, "nonlocal": true, "raise": true, "try": true,
	"with": true, "yield": true,
}

// IsKeyword reports whether name is a reserved word in expressions.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Predeclared returns the builtin globals for argument expressions:
//
//	ncd.none              the "<none>" sentinel string
//	ncd.concat(*parts)    a composed string made of parts
//	ncd.is_none(s)        bool
//	ncd.read_bool(s)      bool, true only for "true"
//	ncd.read_uint(s)      int, fails on non-decimal input
//	ncd.read_time(s)      int milliseconds, fails above the int64 range
//	ncd.intern(s)         int identifier of s in the string index
//	ncd.id(s)             s as an interned id string
func Predeclared(index *stringindex.Index) starlark.StringDict {
	b := &builtins{index: index}
	module := &starlarkstruct.Module{
		Name: ModuleName,
		Members: starlark.StringDict{
			"none":      starlark.String(valueutils.NoneString),
			"concat":    starlark.NewBuiltin("concat", concat),
			"is_none":   starlark.NewBuiltin("is_none", b.isNone),
			"read_bool": starlark.NewBuiltin("read_bool", b.readBool),
			"read_uint": starlark.NewBuiltin("read_uint", b.readUint),
			"read_time": starlark.NewBuiltin("read_time", b.readTime),
			"intern":    starlark.NewBuiltin("intern", b.intern),
			"id":        starlark.NewBuiltin("id", b.id),
		},
	}
	module.Freeze()
	return starlark.StringDict{ModuleName: module}
}

type builtins struct {
	index *stringindex.Index
}

func concat(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}
	var parts []string
	for i, arg := range args {
		switch x := arg.(type) {
		case starlark.String:
			parts = append(parts, string(x))
		case *Composed:
			parts = append(parts, x.Parts()...)
		default:
			return nil, fmt.Errorf("%s: argument %d: got %s, want string", fn.Name(), i, arg.Type())
		}
	}
	return NewComposed(parts...), nil
}

// stringArg unpacks the single string argument of a builtin into a scratch
// Mem, keeping its form: strings stay contiguous, composed strings stay
// composed, and None becomes the interned "<none>".
func (b *builtins) stringArg(fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (val.Ref, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
		return val.Ref{}, err
	}
	r, err := ToValue(val.NewMem(b.index), v)
	if err != nil {
		return val.Ref{}, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	if !r.IsString() {
		return val.Ref{}, fmt.Errorf("%s: got %s, want string", fn.Name(), v.Type())
	}
	return r, nil
}

func (b *builtins) isNone(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(valueutils.IsNone(r)), nil
}

func (b *builtins) readBool(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(valueutils.ReadBoolean(r)), nil
}

func (b *builtins) readUint(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	n, err := valueutils.ReadUintmax(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeUint64(n), nil
}

func (b *builtins) readTime(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	t, err := valueutils.ReadTime(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeInt64(int64(t)), nil
}

func (b *builtins) intern(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	id, err := valueutils.GetStringID(r, b.index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return starlark.MakeInt(int(id)), nil
}

func (b *builtins) id(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	r, err := b.stringArg(fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	id, err := valueutils.GetStringID(r, b.index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return &Interned{id: id, value: b.index.Value(id)}, nil
}
