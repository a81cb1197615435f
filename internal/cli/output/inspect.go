package output

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
)

// Summary describes every conversion the runtime can apply to one value.
type Summary struct {
	Index  int    `json:"index" yaml:"index" cbor:"index"`
	Form   string `json:"form" yaml:"form" cbor:"form"`
	Length int    `json:"length" yaml:"length" cbor:"length"`
	Text   string `json:"text" yaml:"text" cbor:"text"`

	None      bool    `json:"none" yaml:"none" cbor:"none"`
	Bool      bool    `json:"bool" yaml:"bool" cbor:"bool"`
	Uint      *uint64 `json:"uint,omitempty" yaml:"uint,omitempty" cbor:"uint,omitempty"`
	UintError string  `json:"uint_error,omitempty" yaml:"uint_error,omitempty" cbor:"uint_error,omitempty"`
	TimeMS    *int64  `json:"time_ms,omitempty" yaml:"time_ms,omitempty" cbor:"time_ms,omitempty"`
	TimeError string  `json:"time_error,omitempty" yaml:"time_error,omitempty" cbor:"time_error,omitempty"`
	ID        int32   `json:"id" yaml:"id" cbor:"id"`
	IDError   string  `json:"id_error,omitempty" yaml:"id_error,omitempty" cbor:"id_error,omitempty"`
	Dup       *string `json:"dup,omitempty" yaml:"dup,omitempty" cbor:"dup,omitempty"`
}

// FormName names the representation of a value.
func FormName(r val.Ref) string {
	switch {
	case r.IsInvalid():
		return "invalid"
	case r.IsList():
		return "list"
	case r.IsIdString():
		return "id"
	case r.IsContinuousString():
		return "contiguous"
	case r.IsComposedString():
		return "composed"
	default:
		return "unknown"
	}
}

// Summarize runs each conversion on r. Strings are interned into index.
// Lists and invalid values only report their form, length and text.
func Summarize(i int, r val.Ref, index *stringindex.Index) Summary {
	s := Summary{
		Index: i,
		Form:  FormName(r),
		Text:  r.String(),
		ID:    int32(stringindex.Invalid),
	}

	switch {
	case r.IsList():
		s.Length = r.ListCount()
		return s
	case !r.IsString():
		return s
	}

	s.Length = r.StringLength()
	s.None = valueutils.IsNone(r)
	s.Bool = valueutils.ReadBoolean(r)

	if n, err := valueutils.ReadUintmax(r); err != nil {
		s.UintError = err.Error()
	} else {
		s.Uint = &n
	}

	if t, err := valueutils.ReadTime(r); err != nil {
		s.TimeError = err.Error()
	} else {
		ms := int64(t)
		s.TimeMS = &ms
	}

	if id, err := valueutils.GetStringID(r, index); err != nil {
		s.IDError = err.Error()
	} else {
		s.ID = int32(id)
	}

	if r.IsStringNoNulls() {
		if b, err := valueutils.Strdup(r); err == nil {
			dup := string(b)
			s.Dup = &dup
		}
	}

	return s
}

// SummarizeList summarizes each element of an argument list.
func SummarizeList(list val.Ref, index *stringindex.Index) []Summary {
	out := make([]Summary, list.ListCount())
	for i := range out {
		out[i] = Summarize(i, list.ListGet(i), index)
	}
	return out
}

// Summaries renders conversion summaries as a table or document.
func (r *Renderer) Summaries(summaries []Summary) error {
	mode := r.EffectiveMode()
	if mode.IsStructured() {
		return r.Structured(summaries)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Form", "Len", "Value", "None", "Bool", "Uint", "Time", "ID"})

	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Index,
			s.Form,
			s.Length,
			s.Text,
			yesNo(s.None),
			yesNo(s.Bool),
			uintCell(s),
			timeCell(s),
			idCell(s),
		})
	}

	if mode == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func uintCell(s Summary) string {
	switch {
	case s.Uint != nil:
		return strconv.FormatUint(*s.Uint, 10)
	case s.UintError != "":
		return "error: " + s.UintError
	default:
		return "-"
	}
}

func timeCell(s Summary) string {
	switch {
	case s.TimeMS != nil:
		return valueutils.Time(*s.TimeMS).Duration().String()
	case s.TimeError != "":
		return "error: " + s.TimeError
	default:
		return "-"
	}
}

func idCell(s Summary) string {
	switch {
	case s.IDError != "":
		return "error: " + s.IDError
	case s.ID == int32(stringindex.Invalid):
		return "-"
	default:
		return strconv.Itoa(int(s.ID))
	}
}
