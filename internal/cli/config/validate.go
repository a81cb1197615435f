package config

import (
	"fmt"
	"slices"
	"strings"

	starctx "github.com/zeroisme/badvpn/internal/starlark"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
	}
	if c.Mem.MaxValues < 0 {
		return fmt.Errorf("mem.max_values must not be negative")
	}
	if c.Mem.MaxBytes < 0 {
		return fmt.Errorf("mem.max_bytes must not be negative")
	}
	if c.Index.MaxStrings < 0 {
		return fmt.Errorf("index.max_strings must not be negative")
	}
	if c.Eval.Concurrency < 0 {
		return fmt.Errorf("eval.concurrency must not be negative")
	}
	for name := range c.Eval.Globals {
		if !isIdentifier(name) {
			return fmt.Errorf("eval.globals: %q is not a valid identifier", name)
		}
		if name == starctx.ModuleName {
			return fmt.Errorf("eval.globals: %q conflicts with builtin", name)
		}
		if starctx.IsKeyword(name) {
			return fmt.Errorf("eval.globals: %q is a reserved word", name)
		}
	}
	return nil
}

// isIdentifier reports whether name can be used as a Starlark global.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
