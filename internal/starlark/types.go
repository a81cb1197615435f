// Package starlark evaluates NCD function arguments written as Starlark
// expressions and converts between Starlark values and NCD values.
package starlark

import (
	"fmt"
	"strings"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"github.com/zeroisme/badvpn/pkg/ncd/valueutils"
	"go.starlark.net/starlark"
)

// maxDepth bounds list nesting during conversion, so self-referencing
// Starlark lists fail instead of recursing forever.
const maxDepth = 64

// Composed is a Starlark string value made of separate parts. It converts to
// a composed NCD string, so the parts are never joined in value memory.
type Composed struct {
	parts []string
	segs  *val.Segments
}

var _ starlark.Value = (*Composed)(nil)

// NewComposed creates a Composed from its parts.
func NewComposed(parts ...string) *Composed {
	return &Composed{parts: parts, segs: val.SegmentsOf(parts...)}
}

// Parts returns the parts of c.
func (c *Composed) Parts() []string { return c.parts }

// Cursor returns a cursor over the contents of c.
func (c *Composed) Cursor() val.Cursor { return c.segs }

// Join returns the contents of c as one string.
func (c *Composed) Join() string { return strings.Join(c.parts, "") }

// Len returns the length of c in bytes.
func (c *Composed) Len() int { return c.segs.Len() }

func (c *Composed) String() string        { return starlark.String(c.Join()).String() }
func (c *Composed) Type() string          { return "composed_string" }
func (c *Composed) Freeze()               {}
func (c *Composed) Truth() starlark.Bool  { return c.Len() > 0 }
func (c *Composed) Hash() (uint32, error) { return starlark.String(c.Join()).Hash() }

// Interned is a Starlark string value already present in the string index.
// It converts to an id string.
type Interned struct {
	id    stringindex.ID
	value string
}

var _ starlark.Value = (*Interned)(nil)

// ID returns the identifier of s.
func (s *Interned) ID() stringindex.ID { return s.id }

// Value returns the contents of s.
func (s *Interned) Value() string { return s.value }

func (s *Interned) String() string        { return starlark.String(s.value).String() }
func (s *Interned) Type() string          { return "id_string" }
func (s *Interned) Freeze()               {}
func (s *Interned) Truth() starlark.Bool  { return s.value != "" }
func (s *Interned) Hash() (uint32, error) { return starlark.String(s.value).Hash() }

// ToValue converts a Starlark value into a new value in mem.
// Supported types: string, composed_string, id_string, bool, int, None, list, tuple.
// Non-negative ints become decimal strings via valueutils.MakeUintmax; None
// becomes the interned "<none>" string.
func ToValue(mem *val.Mem, v starlark.Value) (val.Ref, error) {
	return toValue(mem, v, 0)
}

func toValue(mem *val.Mem, v starlark.Value, depth int) (val.Ref, error) {
	if depth > maxDepth {
		return val.Ref{}, fmt.Errorf("value nested deeper than %d levels", maxDepth)
	}

	var r val.Ref
	switch x := v.(type) {
	case starlark.NoneType:
		r = mem.NewIdString(stringindex.None)

	case starlark.String:
		r = mem.NewString([]byte(x))

	case *Composed:
		r = mem.NewComposedString(x.Cursor())

	case *Interned:
		r = mem.NewIdString(x.id)

	case starlark.Bool:
		r = valueutils.MakeBoolean(mem, bool(x))

	case starlark.Int:
		if u, ok := x.Uint64(); ok {
			r = valueutils.MakeUintmax(mem, u)
		} else {
			r = mem.NewString([]byte(x.String()))
		}

	case starlark.Tuple, *starlark.List:
		seq := x.(starlark.Indexable)
		r = mem.NewList(seq.Len())
		if r.IsInvalid() {
			return val.Ref{}, val.ErrAlloc
		}
		for i := 0; i < seq.Len(); i++ {
			elem, err := toValue(mem, seq.Index(i), depth+1)
			if err != nil {
				return val.Ref{}, fmt.Errorf("list index %d: %w", i, err)
			}
			if err := mem.ListAppend(r, elem); err != nil {
				return val.Ref{}, fmt.Errorf("list index %d: %w", i, err)
			}
		}

	default:
		return val.Ref{}, fmt.Errorf("unsupported type: %s", v.Type())
	}

	if r.IsInvalid() {
		return val.Ref{}, val.ErrAlloc
	}
	return r, nil
}

// ToStarlark converts a value back to Starlark. Composed strings stay
// composed; other strings become starlark.String and lists become lists.
func ToStarlark(r val.Ref) (starlark.Value, error) {
	switch r.Kind() {
	case val.KindString:
		if r.IsComposedString() {
			c, err := composedFromCursor(r.StringCursor())
			if err != nil {
				return nil, err
			}
			return c, nil
		}
		b, err := r.ReadString(nil)
		if err != nil {
			return nil, err
		}
		return starlark.String(b), nil

	case val.KindList:
		elems := make([]starlark.Value, r.ListCount())
		for i := range elems {
			sv, err := ToStarlark(r.ListGet(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			elems[i] = sv
		}
		return starlark.NewList(elems), nil

	default:
		return nil, fmt.Errorf("cannot convert %s value", r.Kind())
	}
}

func composedFromCursor(c val.Cursor) (*Composed, error) {
	var parts []string
	seen := val.EachChunk(c, 0, c.Len(), func(chunk []byte) bool {
		parts = append(parts, string(chunk))
		return true
	})
	if seen != c.Len() {
		return nil, val.ErrShortCursor
	}
	return NewComposed(parts...), nil
}
