package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeroisme/badvpn/internal/cli/config"
	"github.com/zeroisme/badvpn/internal/cli/output"
	starctx "github.com/zeroisme/badvpn/internal/starlark"
	"github.com/zeroisme/badvpn/internal/valuefile"
	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Index    *stringindex.Index
	Eval     *starctx.ExecutionContext
}

// NewCommandContext creates a CommandContext with a fresh string index
// and an evaluation context built from the current configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	index := stringindex.New(stringindex.WithMaxStrings(cfg.Index.MaxStrings))
	pool := starctx.NewThreadPool(cfg.Eval.Concurrency, logger)
	evalCtx := starctx.NewContext(index,
		starctx.WithVars(cfg.Eval.Globals),
		starctx.WithMaxSteps(cfg.Eval.MaxSteps),
		starctx.WithLogger(logger),
		starctx.WithThreadPool(pool),
	)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Index:    index,
		Eval:     evalCtx,
	}
}

// NewMem creates a Mem with the configured limits.
func (c *CommandContext) NewMem() *val.Mem {
	return val.NewMem(c.Index, c.memOptions()...)
}

func (c *CommandContext) memOptions() []val.MemOption {
	return []val.MemOption{
		val.WithMaxValues(c.Cfg.Mem.MaxValues),
		val.WithMaxBytes(c.Cfg.Mem.MaxBytes),
	}
}

// Loader returns a value file loader sharing the command's string index.
func (c *CommandContext) Loader() *valuefile.Loader {
	return &valuefile.Loader{
		Index:       c.Index,
		MemOptions:  c.memOptions(),
		Concurrency: c.Cfg.Eval.Concurrency,
		Logger:      c.Logger,
	}
}

// BindValueFiles loads paths and binds each file as a global named after
// its base name. A file with a single document binds that document; other
// files bind the list of their documents. Two paths that map to the same
// global are rejected before anything is loaded.
func (c *CommandContext) BindValueFiles(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		name := globalName(path)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%s and %s both bind global %q", prev, path, name)
		}
		seen[name] = path
	}

	files, err := c.Loader().LoadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		name := globalName(f.Path)
		v, err := fileValue(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		if err := c.Eval.SetGlobal(name, v); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		c.Logger.Debug("bound value file", slog.String("path", f.Path), slog.String("global", name))
		names = append(names, name)
	}
	return names, nil
}

func fileValue(f *valuefile.File) (val.Ref, error) {
	if len(f.Values) == 1 {
		return f.Values[0], nil
	}
	list := f.Mem.NewList(len(f.Values))
	if list.IsInvalid() {
		return val.Ref{}, val.ErrAlloc
	}
	for _, v := range f.Values {
		if err := f.Mem.ListAppend(list, v); err != nil {
			return val.Ref{}, err
		}
	}
	return list, nil
}

// globalName derives a Starlark identifier from a file path. Names that
// collide with a reserved word or the builtin module get a "_" suffix.
func globalName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	name := b.String()
	if starctx.IsKeyword(name) || name == starctx.ModuleName {
		name += "_"
	}
	return name
}

// getConfig returns the current configuration, or defaults when no
// configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
