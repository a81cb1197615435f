package output

import (
	"unicode/utf8"

	"github.com/zeroisme/badvpn/pkg/ncd/val"
)

// Native converts a value tree into plain Go values for the structured
// encoders. Strings become string, or []byte when they are not valid
// UTF-8; lists become []any. Invalid values become nil.
func Native(r val.Ref) any {
	switch r.Kind() {
	case val.KindString:
		b := r.AppendString(nil)
		if utf8.Valid(b) {
			return string(b)
		}
		return b
	case val.KindList:
		out := make([]any, r.ListCount())
		for i := range out {
			out[i] = Native(r.ListGet(i))
		}
		return out
	default:
		return nil
	}
}

// Value renders a single value tree.
func (r *Renderer) Value(v val.Ref) error {
	switch mode := r.EffectiveMode(); mode {
	case ModeText:
		r.Println(r.styles.Value.Render(v.String()))
		return nil
	case ModeMarkdown:
		r.Println("```")
		r.Println(v.String())
		r.Println("```")
		return nil
	default:
		return r.Structured(Native(v))
	}
}

// NamedValue is a value tree labelled with where it came from.
type NamedValue struct {
	Name  string
	Value val.Ref
}

// namedDoc is the structured form of a NamedValue.
type namedDoc struct {
	Name  string `json:"name" yaml:"name" cbor:"name"`
	Value any    `json:"value" yaml:"value" cbor:"value"`
}

// Values renders several labelled value trees.
func (r *Renderer) Values(values []NamedValue) error {
	switch mode := r.EffectiveMode(); mode {
	case ModeText:
		for _, nv := range values {
			r.Printf("%s %s\n", r.styles.Key.Render(nv.Name+":"), r.styles.Value.Render(nv.Value.String()))
		}
		return nil
	case ModeMarkdown:
		for _, nv := range values {
			r.Println(FormatKeyValue(nv.Name, FormatCode(nv.Value.String())))
		}
		return nil
	default:
		docs := make([]namedDoc, len(values))
		for i, nv := range values {
			docs[i] = namedDoc{Name: nv.Name, Value: Native(nv.Value)}
		}
		return r.Structured(docs)
	}
}
