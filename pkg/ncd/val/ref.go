package val

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
)

// Ref is a handle to a value in a Mem. The zero Ref is invalid.
type Ref struct {
	mem *Mem
	idx int32
}

func (r Ref) node() *node {
	if r.mem == nil {
		panic("val: use of invalid value")
	}
	return &r.mem.nodes[r.idx]
}

// IsInvalid reports whether r is the invalid value.
func (r Ref) IsInvalid() bool { return r.mem == nil }

// Mem returns the Mem r lives in, or nil for the invalid value.
func (r Ref) Mem() *Mem { return r.mem }

// Kind returns the kind of r.
func (r Ref) Kind() Kind {
	if r.mem == nil {
		return KindInvalid
	}
	return r.node().kind
}

// IsString reports whether r is a string of any form.
func (r Ref) IsString() bool { return r.Kind() == KindString }

// IsList reports whether r is a list.
func (r Ref) IsList() bool { return r.Kind() == KindList }

func (r Ref) str() *node {
	n := r.node()
	if n.kind != KindString {
		panic("val: string operation on " + n.kind.String() + " value")
	}
	return n
}

// IsIdString reports whether r is a string held as an interned identifier.
func (r Ref) IsIdString() bool {
	return r.IsString() && r.node().form == formID
}

// IsContinuousString reports whether r is a string stored as one contiguous
// buffer in its Mem.
func (r Ref) IsContinuousString() bool {
	return r.IsString() && r.node().form == formContiguous
}

// IsComposedString reports whether r is a string read through a Cursor.
func (r Ref) IsComposedString() bool {
	return r.IsString() && r.node().form == formComposed
}

// IdStringID returns the identifier of an id string.
func (r Ref) IdStringID() stringindex.ID {
	n := r.str()
	if n.form != formID {
		panic("val: IdStringID on non-id string")
	}
	return n.id
}

// IdStringValue returns the contents of an id string.
func (r Ref) IdStringValue() string {
	return r.mem.index.Value(r.IdStringID())
}

// StringData returns the bytes of a contiguous string. The slice aliases the
// Mem; writing to it is only meaningful right after NewStringUninitialized.
func (r Ref) StringData() []byte {
	n := r.str()
	if n.form != formContiguous {
		panic("val: StringData on non-contiguous string")
	}
	return n.data
}

// StringCursor returns a Cursor over the string's contents, whatever its form.
func (r Ref) StringCursor() Cursor {
	n := r.str()
	switch n.form {
	case formContiguous:
		return Bytes(n.data)
	case formID:
		return Bytes(r.mem.index.Value(n.id))
	default:
		return n.cursor
	}
}

// StringLength returns the length of the string in bytes.
func (r Ref) StringLength() int {
	n := r.str()
	switch n.form {
	case formContiguous:
		return len(n.data)
	case formID:
		return len(r.mem.index.Value(n.id))
	default:
		return n.cursor.Len()
	}
}

// StringEquals reports whether the string's contents equal lit.
func (r Ref) StringEquals(lit string) bool {
	n := r.str()
	switch n.form {
	case formContiguous:
		return string(n.data) == lit
	case formID:
		return r.mem.index.Value(n.id) == lit
	}
	if n.cursor.Len() != len(lit) {
		return false
	}
	equal := true
	offset := 0
	EachChunk(n.cursor, 0, len(lit), func(chunk []byte) bool {
		equal = string(chunk) == lit[offset:offset+len(chunk)]
		offset += len(chunk)
		return equal
	})
	return equal && offset == len(lit)
}

// IsStringNoNulls reports whether r is a string without zero bytes.
func (r Ref) IsStringNoNulls() bool {
	if !r.IsString() {
		return false
	}
	n := r.node()
	switch n.form {
	case formContiguous:
		return bytes.IndexByte(n.data, 0) < 0
	case formID:
		return strings.IndexByte(r.mem.index.Value(n.id), 0) < 0
	}
	found := false
	seen := EachChunk(n.cursor, 0, n.cursor.Len(), func(chunk []byte) bool {
		found = bytes.IndexByte(chunk, 0) >= 0
		return !found
	})
	return !found && seen == n.cursor.Len()
}

// AppendString appends the string's contents to dst. A composed string whose
// cursor comes up short contributes only the bytes it yielded; ReadString
// reports that case.
func (r Ref) AppendString(dst []byte) []byte {
	dst, _ = r.ReadString(dst)
	return dst
}

// ReadString appends the string's contents to dst. If the cursor of a
// composed string yields fewer bytes than its length, the bytes read so far
// are appended and ErrShortCursor is returned.
func (r Ref) ReadString(dst []byte) ([]byte, error) {
	n := r.str()
	switch n.form {
	case formContiguous:
		return append(dst, n.data...), nil
	case formID:
		return append(dst, r.mem.index.Value(n.id)...), nil
	}
	seen := EachChunk(n.cursor, 0, n.cursor.Len(), func(chunk []byte) bool {
		dst = append(dst, chunk...)
		return true
	})
	if seen != n.cursor.Len() {
		return dst, ErrShortCursor
	}
	return dst, nil
}

func (r Ref) list() *node {
	n := r.node()
	if n.kind != KindList {
		panic("val: list operation on " + n.kind.String() + " value")
	}
	return n
}

// ListCount returns the number of elements in a list.
func (r Ref) ListCount() int { return len(r.list().elems) }

// ListCapacity returns the maximum number of elements of a list.
func (r Ref) ListCapacity() int { return cap(r.list().elems) }

// ListGet returns element i of a list.
func (r Ref) ListGet(i int) Ref { return r.list().elems[i] }

// String renders the value in NCD literal syntax.
func (r Ref) String() string {
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r Ref) write(b *strings.Builder) {
	switch r.Kind() {
	case KindString:
		writeQuoted(b, r.AppendString(nil))
	case KindList:
		b.WriteByte('{')
		for i := 0; i < r.ListCount(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			r.ListGet(i).write(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString("<invalid>")
	}
}

func writeQuoted(b *strings.Builder, s []byte) {
	b.WriteByte('"')
	for _, c := range s {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == 0:
			b.WriteString(`\0`)
		case c < 0x20 || c >= 0x7f:
			b.WriteString(`\x`)
			if c < 0x10 {
				b.WriteByte('0')
			}
			b.WriteString(strconv.FormatUint(uint64(c), 16))
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}
