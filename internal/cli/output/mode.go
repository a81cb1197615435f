// Package output renders ncdval results for terminals, documents and machines.
package output

// OutputMode selects how results are rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
	ModeYAML     OutputMode = "yaml"
	ModeCBOR     OutputMode = "cbor"
)

// Mode converts a configuration string into an OutputMode.
// Unknown strings fall back to ModeAuto.
func Mode(s string) OutputMode {
	switch m := OutputMode(s); m {
	case ModeText, ModeMarkdown, ModeJSON, ModeYAML, ModeCBOR:
		return m
	default:
		return ModeAuto
	}
}

// IsStructured reports whether the mode emits machine-readable documents.
func (m OutputMode) IsStructured() bool {
	return m == ModeJSON || m == ModeYAML || m == ModeCBOR
}
