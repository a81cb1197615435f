// Package config provides configuration management for the ncdval CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Mem          MemConfig   `koanf:"mem"`
	Index        IndexConfig `koanf:"index"`
	Eval         EvalConfig  `koanf:"eval"`
	REPL         REPLConfig  `koanf:"repl"`
}

// MemConfig limits the value memory of each evaluation.
type MemConfig struct {
	MaxValues int `koanf:"max_values"` // 0 = unlimited
	MaxBytes  int `koanf:"max_bytes"`  // 0 = unlimited
}

// IndexConfig limits the string index.
type IndexConfig struct {
	MaxStrings int `koanf:"max_strings"` // 0 = unlimited
}

// EvalConfig configures argument evaluation.
type EvalConfig struct {
	MaxSteps    uint64            `koanf:"max_steps"` // 0 = unlimited
	Concurrency int               `koanf:"concurrency"`
	Globals     map[string]string `koanf:"globals"`
}

// REPLConfig configures the interactive REPL.
type REPLConfig struct {
	HistoryFile string `koanf:"history_file"`
}

// Default configuration values
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=json
	DefaultConcurrency = 4
	EnvPrefix          = "NCDVAL_"
)

// Output formats accepted by the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json", "yaml", "cbor"}
