package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ncdval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	flags.String("output", "", "")
	flags.Int("max-values", 0, "")
	flags.Int("max-bytes", 0, "")
	flags.Int("max-strings", 0, "")
	flags.Uint64("max-steps", 0, "")
	flags.Int("concurrency", 0, "")
	flags.String("history", "", "")
	return flags
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr string
	}{
		{
			name: "valid defaults",
			cfg:  Config{OutputFormat: "auto"},
		},
		{
			name: "valid limits",
			cfg: Config{
				OutputFormat: "cbor",
				Mem:          MemConfig{MaxValues: 10, MaxBytes: 1024},
				Index:        IndexConfig{MaxStrings: 100},
				Eval:         EvalConfig{MaxSteps: 1000, Globals: map[string]string{"greeting": `"hi"`}},
			},
		},
		{
			name:      "unknown output",
			cfg:       Config{OutputFormat: "xml"},
			wantErr:   true,
			errSubstr: "unknown output format",
		},
		{
			name:      "negative max values",
			cfg:       Config{OutputFormat: "json", Mem: MemConfig{MaxValues: -1}},
			wantErr:   true,
			errSubstr: "mem.max_values",
		},
		{
			name:      "negative max bytes",
			cfg:       Config{OutputFormat: "json", Mem: MemConfig{MaxBytes: -1}},
			wantErr:   true,
			errSubstr: "mem.max_bytes",
		},
		{
			name:      "negative max strings",
			cfg:       Config{OutputFormat: "json", Index: IndexConfig{MaxStrings: -5}},
			wantErr:   true,
			errSubstr: "index.max_strings",
		},
		{
			name:      "bad global name",
			cfg:       Config{OutputFormat: "text", Eval: EvalConfig{Globals: map[string]string{"1abc": `""`}}},
			wantErr:   true,
			errSubstr: "not a valid identifier",
		},
		{
			name:      "global shadows builtin",
			cfg:       Config{OutputFormat: "text", Eval: EvalConfig{Globals: map[string]string{"ncd": `""`}}},
			wantErr:   true,
			errSubstr: "conflicts with builtin",
		},
		{
			name:      "global is a keyword",
			cfg:       Config{OutputFormat: "text", Eval: EvalConfig{Globals: map[string]string{"for": `""`}}},
			wantErr:   true,
			errSubstr: "reserved word",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Eval.Concurrency)
	assert.Zero(t, cfg.Mem.MaxValues)
	assert.Zero(t, cfg.Eval.MaxSteps)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `
output: yaml
mem:
  max_values: 64
  max_bytes: 4096
index:
  max_strings: 32
eval:
  max_steps: 5000
  globals:
    answer: "42"
repl:
  history_file: /tmp/ncdval_history
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, 64, cfg.Mem.MaxValues)
	assert.Equal(t, 4096, cfg.Mem.MaxBytes)
	assert.Equal(t, 32, cfg.Index.MaxStrings)
	assert.Equal(t, uint64(5000), cfg.Eval.MaxSteps)
	assert.Equal(t, map[string]string{"answer": "42"}, cfg.Eval.Globals)
	assert.Equal(t, "/tmp/ncdval_history", cfg.REPL.HistoryFile)
}

func TestLoadConfig_DiscoversFileInWorkingDir(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ncdval.yml"), []byte("output: text\n"), 0o600))
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.OutputFormat)
	assert.Equal(t, "ncdval.yml", GetConfigFileUsed())
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "output: xml\n")

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "output: yaml\nmem:\n  max_values: 8\n")
	t.Setenv("NCDVAL_OUTPUT", "json")
	t.Setenv("NCDVAL_MEM__MAX_VALUES", "16")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 16, cfg.Mem.MaxValues)
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "output: yaml\neval:\n  max_steps: 10\n")
	t.Setenv("NCDVAL_OUTPUT", "json")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--output", "cbor", "--max-steps", "99", "--max-strings", "7"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "cbor", cfg.OutputFormat)
	assert.Equal(t, uint64(99), cfg.Eval.MaxSteps)
	assert.Equal(t, 7, cfg.Index.MaxStrings)
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("NCDVAL_MEM__MAX_BYTES", "512")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, 512, cfg.Mem.MaxBytes)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
}

func TestGetLogger_Fallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)
	logger.Info("discarded")
}

func TestGetCurrentConfig(t *testing.T) {
	ResetConfig()
	assert.Nil(t, GetCurrentConfig())

	path := writeConfig(t, "output: text\n")
	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())

	ResetConfig()
	assert.Nil(t, GetCurrentConfig())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Eval.Concurrency)
}

func TestLoadConfig_ConcurrencyFlag(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--concurrency", "2", "--history", "/tmp/h"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Eval.Concurrency)
	assert.Equal(t, "/tmp/h", cfg.REPL.HistoryFile)
}
