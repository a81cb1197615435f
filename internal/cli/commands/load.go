package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeroisme/badvpn/internal/cli/output"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "load FILE...",
		Short: "Load YAML value files and print their values",
		Long: `Load one or more YAML value files concurrently and print each document
as an NCD value.

Value file syntax:
  plain scalars       contiguous strings
  !id scalar          interned identifier string
  ~ or null           the "<none>" sentinel
  sequences           lists
  !concat [a, b, ...] composed (fragmented) string`,
		Example: `  ncdval load hosts.yaml
  ncdval load --inspect a.yaml b.yaml --output markdown`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			r := cc.Renderer

			files, err := cc.Loader().LoadFiles(cmd.Context(), args)
			if err != nil {
				return err
			}

			if inspect {
				var summaries []output.Summary
				for _, f := range files {
					for _, v := range f.Values {
						summaries = append(summaries, output.Summarize(len(summaries), v, cc.Index))
					}
				}
				return r.Summaries(summaries)
			}

			var values []output.NamedValue
			for _, f := range files {
				for i, v := range f.Values {
					values = append(values, output.NamedValue{
						Name:  fmt.Sprintf("%s#%d", f.Path, i),
						Value: v,
					})
				}
			}
			return r.Values(values)
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "Show conversions instead of values")

	return cmd
}
