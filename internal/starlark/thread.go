package starlark

import (
	"log/slog"
	"sync"

	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
	"go.starlark.net/starlark"
)

// ThreadPool manages a pool of Starlark threads reused across argument
// evaluations.
type ThreadPool struct {
	mu      sync.Mutex
	threads []*starlark.Thread
	maxSize int
	logger  *slog.Logger
}

// NewThreadPool creates a new thread pool with the specified maximum size.
// Output of Starlark print() goes to logger at info level.
func NewThreadPool(maxSize int, logger *slog.Logger) *ThreadPool {
	if maxSize <= 0 {
		maxSize = 10 // default pool size
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ThreadPool{
		threads: make([]*starlark.Thread, 0, maxSize),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Get retrieves a thread from the pool or creates a new one.
// The thread name is used for error reporting.
func (p *ThreadPool) Get(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) > 0 {
		thread := p.threads[len(p.threads)-1]
		p.threads = p.threads[:len(p.threads)-1]
		thread.Name = name
		return thread
	}

	logger := p.logger
	return &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			logger.Info(msg, "thread", thread.Name)
		},
	}
}

// Put returns a thread to the pool for reuse.
// If the pool is full, the thread is discarded.
func (p *ThreadPool) Put(thread *starlark.Thread) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) < p.maxSize {
		thread.Name = ""
		p.threads = append(p.threads, thread)
	}
}

// Size returns the current number of threads in the pool.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.threads)
}

// ParallelExecutor evaluates the argument lists of several calls in
// parallel. Each call gets its own Mem; all share the context's string index.
type ParallelExecutor struct {
	ctx    *ExecutionContext
	newMem func() *val.Mem
	sem    chan struct{}
}

// NewParallelExecutor creates a new parallel executor running at most
// maxConcurrency calls at once. newMem creates the Mem of each call.
func NewParallelExecutor(ctx *ExecutionContext, maxConcurrency int, newMem func() *val.Mem) *ParallelExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ParallelExecutor{
		ctx:    ctx,
		newMem: newMem,
		sem:    make(chan struct{}, maxConcurrency),
	}
}

// Execute evaluates all tasks and collects results in task order.
func (e *ParallelExecutor) Execute(tasks []EvalTask) []EvalResult {
	results := make([]EvalResult, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t EvalTask) {
			defer wg.Done()
			e.sem <- struct{}{}
			defer func() { <-e.sem }()

			results[idx] = e.run(t)
		}(i, task)
	}

	wg.Wait()
	return results
}

func (e *ParallelExecutor) run(t EvalTask) EvalResult {
	res := EvalResult{Name: t.Name}

	args, err := e.ctx.ParseArgs(t.Name, t.Src)
	if err != nil {
		res.Error = err
		return res
	}

	count := t.Count
	if count < 0 {
		count = args.Count() - t.Start
	}
	if t.Start < 0 || t.Start > args.Count() || count < 0 || count > args.Count()-t.Start {
		res.Error = &EvalError{File: t.Name, Arg: -1, Message: "argument range out of bounds"}
		return res
	}

	res.Mem = e.newMem()
	res.Value, res.Error = valueutils.EvalFuncArgsExt(args, t.Start, count, res.Mem)
	return res
}

// EvalTask represents the argument list of one call.
type EvalTask struct {
	Name  string // Identifier for this task (used for error reporting)
	Src   string // Comma-separated Starlark argument expressions
	Start int    // First argument to evaluate
	Count int    // Number of arguments to evaluate, -1 for the rest
}

// EvalResult represents the result of an evaluation task.
type EvalResult struct {
	Name  string
	Mem   *val.Mem
	Value val.Ref
	Error error
}
