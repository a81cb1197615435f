package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroisme/badvpn/internal/cli/output"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var values []string

	cmd := &cobra.Command{
		Use:   "inspect ARGS...",
		Short: "Show every conversion of each evaluated argument",
		Long: `Evaluate an argument list and show, for each argument, its string form
and the result of every conversion: none test, boolean, unsigned integer,
time, interned identifier.`,
		Example: `  ncdval inspect '"42", ncd.concat("1", "5"), ncd.none, ncd.id("true")'
  ncdval inspect --output json '"18446744073709551616"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)

			if _, err := cc.BindValueFiles(cmd.Context(), values); err != nil {
				return fmt.Errorf("failed to load values: %w", err)
			}

			parsed, err := cc.Eval.ParseArgs("<args>", strings.Join(args, " "))
			if err != nil {
				return err
			}

			list, err := valueutils.EvalFuncArgs(parsed, cc.NewMem())
			if err != nil {
				return err
			}

			return cc.Renderer.Summaries(output.SummarizeList(list, cc.Index))
		},
	}

	cmd.Flags().StringSliceVar(&values, "values", nil, "Value files to bind as globals")

	return cmd
}
