package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroisme/badvpn/internal/cli/output"
	starctx "github.com/zeroisme/badvpn/internal/starlark"
)

// EvalOptions holds the flags of the eval command.
type EvalOptions struct {
	Start  int
	Count  int
	Exprs  []string
	Values []string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}

	cmd := &cobra.Command{
		Use:   "eval [flags] [ARGS...]",
		Short: "Evaluate an argument list into a value list",
		Long: `Evaluate a comma-separated list of Starlark argument expressions and
print the resulting NCD value list.

Positional arguments are joined with spaces into one argument list. Each
--expr adds another argument list; several lists are evaluated in parallel.

Expressions can use the ncd module:
  ncd.none              the "<none>" sentinel
  ncd.concat(a, b, ...) a composed (fragmented) string
  ncd.id(s)             an interned identifier string
  ncd.intern(s)         the identifier number of s
  ncd.read_uint(s), ncd.read_time(s), ncd.read_bool(s), ncd.is_none(s)`,
		Example: `  # Evaluate three arguments
  ncdval eval '"a", 1 + 2, ncd.concat("x", "y")'

  # Evaluate only the second and third arguments
  ncdval eval --start 1 --count 2 '"skipped", "b", "c"'

  # Evaluate two argument lists in parallel as YAML
  ncdval eval -e '"a", "b"' -e 'True, None' --output yaml

  # Refer to values loaded from a file
  ncdval eval --values hosts.yaml 'hosts[0]'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "Index of the first argument to evaluate")
	cmd.Flags().IntVar(&opts.Count, "count", -1, "Number of arguments to evaluate (-1 for the rest)")
	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "Additional argument list (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Values, "values", nil, "Value files to bind as globals")

	return cmd
}

func runEval(cmd *cobra.Command, args []string, opts *EvalOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	tasks := evalTasks(args, opts)
	if len(tasks) == 0 {
		return errors.New("nothing to evaluate: pass ARGS or --expr")
	}

	if _, err := cc.BindValueFiles(cmd.Context(), opts.Values); err != nil {
		return fmt.Errorf("failed to load values: %w", err)
	}

	executor := starctx.NewParallelExecutor(cc.Eval, cc.Cfg.Eval.Concurrency, cc.NewMem)
	results := executor.Execute(tasks)

	var (
		values []output.NamedValue
		failed int
	)
	for _, res := range results {
		if res.Error != nil {
			failed++
			cc.Logger.Debug("evaluation failed", slog.String("task", res.Name), slog.Any("error", res.Error))
			if len(results) == 1 {
				return res.Error
			}
			r.Error(res.Error.Error())
			continue
		}
		values = append(values, output.NamedValue{Name: res.Name, Value: res.Value})
	}

	if len(results) == 1 {
		if err := r.Value(values[0].Value); err != nil {
			return err
		}
	} else if err := r.Values(values); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d argument lists failed", failed, len(results))
	}
	return nil
}

// evalTasks builds one task for the positional arguments, if any, and
// one per --expr.
func evalTasks(args []string, opts *EvalOptions) []starctx.EvalTask {
	var tasks []starctx.EvalTask
	if len(args) > 0 {
		tasks = append(tasks, starctx.EvalTask{
			Name:  "<args>",
			Src:   strings.Join(args, " "),
			Start: opts.Start,
			Count: opts.Count,
		})
	}
	for i, src := range opts.Exprs {
		tasks = append(tasks, starctx.EvalTask{
			Name:  fmt.Sprintf("<expr %d>", i),
			Src:   src,
			Start: opts.Start,
			Count: opts.Count,
		})
	}
	return tasks
}
