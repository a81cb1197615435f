package starlark

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ExecutionContext provides the globals and threads for argument evaluation.
type ExecutionContext struct {
	// Index resolves and interns strings for converted values
	Index *stringindex.Index

	// Vars are string globals, usually taken from configuration
	Vars map[string]string

	// MaxSteps bounds the Starlark steps spent on one argument (0 = no limit)
	MaxSteps uint64

	pool   *ThreadPool
	logger *slog.Logger

	// globals is the combined set of all globals for execution
	globals starlark.StringDict
	mu      sync.RWMutex
}

// ContextOption is a functional option for configuring ExecutionContext.
type ContextOption func(*ExecutionContext)

// WithVars sets string globals visible to argument expressions.
func WithVars(vars map[string]string) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.Vars = vars
	}
}

// WithMaxSteps bounds the execution steps of each argument.
func WithMaxSteps(n uint64) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.MaxSteps = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.logger = logger
	}
}

// WithThreadPool sets the pool threads are taken from.
func WithThreadPool(pool *ThreadPool) ContextOption {
	return func(ctx *ExecutionContext) {
		ctx.pool = pool
	}
}

// NewContext creates a new execution context with functional options.
func NewContext(index *stringindex.Index, opts ...ContextOption) *ExecutionContext {
	ctx := &ExecutionContext{
		Index: index,
	}

	for _, opt := range opts {
		opt(ctx)
	}

	if ctx.logger == nil {
		ctx.logger = slog.New(slog.DiscardHandler)
	}
	if ctx.pool == nil {
		ctx.pool = NewThreadPool(0, ctx.logger)
	}

	ctx.buildGlobals()
	return ctx
}

// buildGlobals constructs the combined globals dict.
func (ctx *ExecutionContext) buildGlobals() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.globals = Predeclared(ctx.Index)
	for name, v := range ctx.Vars {
		ctx.globals[name] = starlark.String(v)
	}
}

// Globals returns the combined globals dictionary for Starlark execution.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.globals
}

// SetGlobal binds name to the Starlark form of r. The builtin "ncd" module
// cannot be replaced, and reserved words are rejected.
func (ctx *ExecutionContext) SetGlobal(name string, r val.Ref) error {
	if name == ModuleName {
		return fmt.Errorf("global %q conflicts with builtin", name)
	}
	if IsKeyword(name) {
		return fmt.Errorf("global %q is a reserved word", name)
	}
	sv, err := ToStarlark(r)
	if err != nil {
		return fmt.Errorf("global %q: %w", name, err)
	}
	sv.Freeze()

	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	globals := make(starlark.StringDict, len(ctx.globals)+1)
	for k, v := range ctx.globals {
		globals[k] = v
	}
	globals[name] = sv
	ctx.globals = globals
	return nil
}

// GlobalNames returns the sorted names of all globals.
func (ctx *ExecutionContext) GlobalNames() []string {
	globals := ctx.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseArgs parses src as the comma-separated argument list of one call.
// Nothing is evaluated until Args.EvalArg is called.
func (ctx *ExecutionContext) ParseArgs(filename, src string) (*Args, error) {
	args := &Args{ctx: ctx, filename: filename}
	if isBlank(src) {
		return args, nil
	}

	expr, err := syntax.ParseExpr(filename, src, 0) //nolint:staticcheck // SA1019: will migrate to FileOptions.ParseExpr later
	if err != nil {
		return nil, &EvalError{File: filename, Arg: -1, Message: err.Error()}
	}

	if tuple, ok := expr.(*syntax.TupleExpr); ok {
		args.exprs = tuple.List
	} else {
		args.exprs = []syntax.Expr{expr}
	}
	return args, nil
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// Args is the lazily evaluated argument list of one call.
type Args struct {
	ctx      *ExecutionContext
	filename string
	exprs    []syntax.Expr
}

// Count returns the number of arguments.
func (a *Args) Count() int { return len(a.exprs) }

// EvalArg evaluates argument i and converts the result into mem.
func (a *Args) EvalArg(i int, mem *val.Mem) (val.Ref, error) {
	expr := a.exprs[i]
	start, _ := expr.Span()

	thread := a.ctx.pool.Get(fmt.Sprintf("%s:arg%d", a.filename, i))
	if a.ctx.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(thread.ExecutionSteps() + a.ctx.MaxSteps)
	}

	result, err := starlark.EvalExpr(thread, expr, a.ctx.Globals()) //nolint:staticcheck // SA1019: will migrate to EvalExprOptions later
	if err != nil {
		// A failed thread may be cancelled; it is not reused.
		return val.Ref{}, &EvalError{File: a.filename, Arg: i, Pos: start, Message: err.Error()}
	}
	a.ctx.pool.Put(thread)

	r, err := ToValue(mem, result)
	if err != nil {
		return val.Ref{}, &EvalError{File: a.filename, Arg: i, Pos: start, Message: err.Error()}
	}

	a.ctx.logger.Debug("evaluated argument",
		slog.String("file", a.filename),
		slog.Int("index", i),
		slog.String("type", result.Type()),
		slog.String("kind", r.Kind().String()))
	return r, nil
}

// EvalError represents an error during argument parsing or evaluation.
type EvalError struct {
	File    string
	Arg     int // -1 when the argument list failed to parse
	Pos     syntax.Position
	Message string
}

func (e *EvalError) Error() string {
	if e.Arg < 0 {
		return fmt.Sprintf("%s: error parsing arguments: %s", e.File, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: error evaluating argument %d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Arg, e.Message)
	}
	return fmt.Sprintf("%s: error evaluating argument %d: %s", e.File, e.Arg, e.Message)
}
