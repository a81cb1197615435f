package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/zeroisme/badvpn/internal/cli/output"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
)

const replPrompt = "ncdval> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate argument lists interactively",
		Long: `Start an interactive session. Each line is a comma-separated argument
list that is evaluated and printed as an NCD value list.

Type .help for commands, .quit to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)
	session := newREPLSession(cc, cmd.OutOrStdout(), cmd.ErrOrStderr())

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     cc.Cfg.REPL.HistoryFile,
		AutoComplete:    session.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ncdval REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if session.handleLine(cmd.Context(), line) {
			break
		}
	}

	return nil
}

// replSession evaluates REPL input lines.
type replSession struct {
	cc     *CommandContext
	out    io.Writer
	errOut io.Writer
	lines  int
}

func newREPLSession(cc *CommandContext, out, errOut io.Writer) *replSession {
	return &replSession{cc: cc, out: out, errOut: errOut}
}

// handleLine processes one line and reports whether the session should end.
func (s *replSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	s.lines++

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(ctx, line)
	}

	if err := s.eval(line); err != nil {
		s.printError(err)
	}
	return false
}

func (s *replSession) filename() string {
	return fmt.Sprintf("<repl:%d>", s.lines)
}

func (s *replSession) eval(src string) error {
	parsed, err := s.cc.Eval.ParseArgs(s.filename(), src)
	if err != nil {
		return err
	}
	list, err := valueutils.EvalFuncArgs(parsed, s.cc.NewMem())
	if err != nil {
		return err
	}
	return s.cc.Renderer.Value(list)
}

func (s *replSession) handleDotCommand(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".globals":
		for _, name := range s.cc.Eval.GlobalNames() {
			_, _ = fmt.Fprintln(s.out, name)
		}

	case ".inspect":
		if err := s.inspect(rest); err != nil {
			s.printError(err)
		}

	case ".load":
		paths := strings.Fields(rest)
		if len(paths) == 0 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .load <file>...")
			return false
		}
		names, err := s.cc.BindValueFiles(ctx, paths)
		if err != nil {
			s.printError(err)
			return false
		}
		for _, name := range names {
			_, _ = fmt.Fprintf(s.out, "bound %s\n", name)
		}

	case ".set":
		name, src, ok := strings.Cut(rest, " ")
		if !ok || name == "" {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .set <name> <expr>")
			return false
		}
		if err := s.set(name, src); err != nil {
			s.printError(err)
		}

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) inspect(src string) error {
	parsed, err := s.cc.Eval.ParseArgs(s.filename(), src)
	if err != nil {
		return err
	}
	list, err := valueutils.EvalFuncArgs(parsed, s.cc.NewMem())
	if err != nil {
		return err
	}
	return s.cc.Renderer.Summaries(output.SummarizeList(list, s.cc.Index))
}

// set evaluates a single expression and binds it as a global.
func (s *replSession) set(name, src string) error {
	parsed, err := s.cc.Eval.ParseArgs(s.filename(), src)
	if err != nil {
		return err
	}
	if parsed.Count() != 1 {
		return fmt.Errorf("expected one expression, got %d", parsed.Count())
	}
	v, err := parsed.EvalArg(0, s.cc.NewMem())
	if err != nil {
		return err
	}
	return s.cc.Eval.SetGlobal(name, v)
}

func (s *replSession) printError(err error) {
	_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help               Show this help message
  .globals            List global names
  .inspect <args>     Show every conversion of each argument
  .load <file>...     Bind value files as globals
  .set <name> <expr>  Bind an expression as a global
  .clear              Clear the screen
  .quit / .exit       Exit the REPL

Tips:
  - Each line is a comma-separated argument list
  - ncd.concat(...) builds a composed string, ncd.id(s) an id string
  - Use arrow keys to navigate history
  - Tab completion works for globals
`
	_, _ = fmt.Fprintln(w, help)
}

// completer completes dot-commands and the current global names.
func (s *replSession) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItemDynamic(func(string) []string {
			return s.cc.Eval.GlobalNames()
		}),
		readline.PcItem(".help"),
		readline.PcItem(".globals"),
		readline.PcItem(".inspect"),
		readline.PcItem(".load"),
		readline.PcItem(".set"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
