// Package val is the value store of the NCD runtime.
//
// Values live in a Mem and are addressed through Ref handles. A string value
// is held in exactly one of three forms: an interned identifier, a contiguous
// buffer owned by the Mem, or a composed string whose bytes are reached only
// through a Cursor. Lists have a fixed capacity chosen at creation.
package val

import (
	"errors"

	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
)

var (
	// ErrAlloc is returned when the Mem refuses to allocate a value.
	ErrAlloc = errors.New("value memory exhausted")
	// ErrListFull is returned when appending to a list at capacity.
	ErrListFull = errors.New("list is full")
	// ErrForeignRef is returned when a Ref from another Mem is used.
	ErrForeignRef = errors.New("value belongs to a different memory")
	// ErrShortCursor is returned when a composed string's cursor yields
	// fewer bytes than its reported length.
	ErrShortCursor = errors.New("string cursor returned fewer bytes than its length")
)

// Kind identifies the type of a value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

type strForm uint8

const (
	formContiguous strForm = iota
	formID
	formComposed
)

type node struct {
	kind   Kind
	form   strForm
	data   []byte
	id     stringindex.ID
	cursor Cursor
	elems  []Ref
}

// Mem is an arena of values. It is not safe for concurrent use.
type Mem struct {
	index     *stringindex.Index
	nodes     []node
	bytes     int
	maxValues int
	maxBytes  int
}

// MemOption configures a Mem.
type MemOption func(*Mem)

// WithMaxValues limits the number of values in the Mem. Zero or negative
// means unlimited.
func WithMaxValues(n int) MemOption {
	return func(m *Mem) {
		m.maxValues = n
	}
}

// WithMaxBytes limits the total bytes of contiguous string data in the Mem.
// Zero or negative means unlimited.
func WithMaxBytes(n int) MemOption {
	return func(m *Mem) {
		m.maxBytes = n
	}
}

// NewMem creates an empty Mem. Id strings created in it are resolved
// through index.
func NewMem(index *stringindex.Index, opts ...MemOption) *Mem {
	m := &Mem{index: index}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Index returns the string index the Mem resolves id strings with.
func (m *Mem) Index() *stringindex.Index { return m.index }

// Count returns the number of values allocated in the Mem.
func (m *Mem) Count() int { return len(m.nodes) }

// Bytes returns the number of bytes of string data held by the Mem.
func (m *Mem) Bytes() int { return m.bytes }

func (m *Mem) alloc(n node, size int) Ref {
	if m.maxValues > 0 && len(m.nodes) >= m.maxValues {
		return Ref{}
	}
	if m.maxBytes > 0 && m.bytes+size > m.maxBytes {
		return Ref{}
	}
	m.nodes = append(m.nodes, n)
	m.bytes += size
	return Ref{mem: m, idx: int32(len(m.nodes) - 1)}
}

// NewString creates a contiguous string holding a copy of data.
func (m *Mem) NewString(data []byte) Ref {
	r := m.NewStringUninitialized(len(data))
	if !r.IsInvalid() {
		copy(r.node().data, data)
	}
	return r
}

// NewStringUninitialized creates a zero-filled contiguous string of length n
// whose bytes may be written through StringData. It returns an invalid Ref
// if the Mem refuses the allocation.
func (m *Mem) NewStringUninitialized(n int) Ref {
	if n < 0 {
		panic("val: negative string length")
	}
	if m.maxBytes > 0 && m.bytes+n > m.maxBytes {
		return Ref{}
	}
	return m.alloc(node{kind: KindString, form: formContiguous, data: make([]byte, n)}, n)
}

// NewIdString creates a string holding the interned identifier id.
func (m *Mem) NewIdString(id stringindex.ID) Ref {
	if id < 0 || int(id) >= m.index.Len() {
		panic("val: id string identifier not in index")
	}
	return m.alloc(node{kind: KindString, form: formID, id: id}, 0)
}

// NewComposedString creates a string whose contents are read through c.
// The Mem does not copy the bytes; c must stay valid and unchanged for the
// lifetime of the Mem.
func (m *Mem) NewComposedString(c Cursor) Ref {
	return m.alloc(node{kind: KindString, form: formComposed, cursor: c}, 0)
}

// NewList creates an empty list that can hold up to capacity elements.
func (m *Mem) NewList(capacity int) Ref {
	if capacity < 0 {
		panic("val: negative list capacity")
	}
	return m.alloc(node{kind: KindList, elems: make([]Ref, 0, capacity)}, 0)
}

// ListAppend appends elem to list.
func (m *Mem) ListAppend(list, elem Ref) error {
	if list.mem != m || elem.mem != m {
		return ErrForeignRef
	}
	n := list.node()
	if n.kind != KindList {
		panic("val: ListAppend on non-list value")
	}
	if len(n.elems) == cap(n.elems) {
		return ErrListFull
	}
	n.elems = append(n.elems, elem)
	return nil
}
