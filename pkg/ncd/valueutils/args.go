package valueutils

import (
	"fmt"

	"github.com/zeroisme/badvpn/pkg/ncd/val"
)

// Args gives lazy access to the argument expressions of a function call.
type Args interface {
	// Count returns the number of arguments.
	Count() int
	// EvalArg evaluates argument i into a new value in mem.
	EvalArg(i int, mem *val.Mem) (val.Ref, error)
}

// ArgError reports the argument whose evaluation or insertion failed.
type ArgError struct {
	Index int
	Err   error
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %d: %v", e.Index, e.Err)
}

func (e *ArgError) Unwrap() error { return e.Err }

// EvalFuncArgsExt evaluates count arguments starting at start, in order, into
// a new list in mem. It stops at the first failure and returns no list.
func EvalFuncArgsExt(args Args, start, count int, mem *val.Mem) (val.Ref, error) {
	total := args.Count()
	if start < 0 || start > total {
		panic(fmt.Sprintf("valueutils: argument start %d out of range [0, %d]", start, total))
	}
	if count < 0 || count > total-start {
		panic(fmt.Sprintf("valueutils: argument count %d out of range [0, %d]", count, total-start))
	}

	list := mem.NewList(count)
	if list.IsInvalid() {
		return val.Ref{}, val.ErrAlloc
	}

	for i := start; i < start+count; i++ {
		elem, err := args.EvalArg(i, mem)
		if err != nil {
			return val.Ref{}, &ArgError{Index: i, Err: err}
		}
		if elem.IsInvalid() {
			return val.Ref{}, &ArgError{Index: i, Err: val.ErrAlloc}
		}
		if err := mem.ListAppend(list, elem); err != nil {
			return val.Ref{}, &ArgError{Index: i, Err: err}
		}
	}

	return list, nil
}

// EvalFuncArgs evaluates all arguments into a new list in mem.
func EvalFuncArgs(args Args, mem *val.Mem) (val.Ref, error) {
	return EvalFuncArgsExt(args, 0, args.Count(), mem)
}
