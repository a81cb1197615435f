// Package stringindex maps string contents to small stable identifiers.
//
// A fixed set of static strings is interned first by New, so their
// identifiers are the same constants in every index. Values that are
// already interned can then be recognized with an integer comparison.
package stringindex

import (
	"errors"
	"sync"
)

// ID identifies an interned string. Valid identifiers are non-negative.
type ID int32

// Invalid is returned alongside an error when interning fails.
const Invalid ID = -1

// Static string identifiers, assigned by New in this order.
const (
	Empty ID = iota
	None
	True
	False
)

// staticStrings holds the contents of the static identifiers, indexed by ID.
var staticStrings = [...]string{
	Empty: "",
	None:  "<none>",
	True:  "true",
	False: "false",
}

// ErrIndexFull is returned when a new string would exceed the configured limit.
var ErrIndexFull = errors.New("string index is full")

// Index is a thread-safe interning table.
type Index struct {
	mu         sync.RWMutex
	ids        map[string]ID
	strs       []string
	maxStrings int
}

// Option configures an Index.
type Option func(*Index)

// WithMaxStrings limits the number of strings the index may hold,
// static strings included. Zero or negative means unlimited.
func WithMaxStrings(n int) Option {
	return func(x *Index) {
		x.maxStrings = n
	}
}

// New creates an index holding the static strings.
func New(opts ...Option) *Index {
	x := &Index{
		ids:  make(map[string]ID, 64),
		strs: make([]string, 0, 64),
	}
	for _, opt := range opts {
		opt(x)
	}
	for _, s := range staticStrings {
		x.ids[s] = ID(len(x.strs))
		x.strs = append(x.strs, s)
	}
	return x
}

// Get returns the identifier of s, interning it if it has not been seen.
func (x *Index) Get(s string) (ID, error) {
	x.mu.RLock()
	id, ok := x.ids[s]
	x.mu.RUnlock()
	if ok {
		return id, nil
	}
	return x.insert(s)
}

// GetBin is like Get but takes the contents as bytes. The lookup does not
// copy b; a copy is only made when the string is new.
func (x *Index) GetBin(b []byte) (ID, error) {
	x.mu.RLock()
	id, ok := x.ids[string(b)]
	x.mu.RUnlock()
	if ok {
		return id, nil
	}
	return x.insert(string(b))
}

func (x *Index) insert(s string) (ID, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if id, ok := x.ids[s]; ok {
		return id, nil
	}
	if x.maxStrings > 0 && len(x.strs) >= x.maxStrings {
		return Invalid, ErrIndexFull
	}
	id := ID(len(x.strs))
	x.ids[s] = id
	x.strs = append(x.strs, s)
	return id, nil
}

// Lookup returns the identifier of s without interning it.
func (x *Index) Lookup(s string) (ID, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	id, ok := x.ids[s]
	return id, ok
}

// Value returns the contents of id. It panics if id was not issued by x.
func (x *Index) Value(id ID) string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if id < 0 || int(id) >= len(x.strs) {
		panic("stringindex: identifier out of range")
	}
	return x.strs[id]
}

// Len returns the number of interned strings.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.strs)
}
