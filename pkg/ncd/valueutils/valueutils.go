// Package valueutils converts NCD string values to and from primitive types.
//
// Every function here accepts a string in any of its three forms (interned
// identifier, contiguous buffer, composed) and picks the cheapest path for
// it: identifier comparisons for interned strings, zero-copy access for
// contiguous ones, and segment walks for composed ones. A composed string is
// only copied into a temporary buffer where a collaborator insists on
// contiguous input, and that buffer is released before returning.
package valueutils

import (
	"errors"
	"math"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/zeroisme/badvpn/pkg/ncd/parsenum"
	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
)

// NoneString is the contents of the "none" sentinel.
const NoneString = "<none>"

var (
	// ErrTimeRange is returned by ReadTime for values above math.MaxInt64.
	ErrTimeRange = errors.New("time value out of range")
	// ErrShortCopy is returned when a string's cursor yields fewer bytes
	// than its reported length.
	ErrShortCopy = val.ErrShortCursor
)

// Time is a count of milliseconds, the clock unit of the NCD runtime.
type Time int64

// Duration converts t to a time.Duration, saturating at the largest
// representable duration.
func (t Time) Duration() time.Duration {
	if t > Time(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(t) * time.Millisecond
}

func mustString(s val.Ref) {
	if !s.IsString() {
		panic("valueutils: value is not a string")
	}
}

// IsNone reports whether s is the "none" sentinel.
func IsNone(s val.Ref) bool {
	mustString(s)

	if s.IsIdString() {
		return s.IdStringID() == stringindex.None
	}
	return s.StringEquals(NoneString)
}

// MakeBoolean returns the interned "true" or "false" string in mem. The
// result is invalid if mem refuses the allocation.
func MakeBoolean(mem *val.Mem, v bool) val.Ref {
	id := stringindex.False
	if v {
		id = stringindex.True
	}
	return mem.NewIdString(id)
}

// ReadBoolean reports whether s is exactly "true". Any other contents,
// including malformed ones, read as false.
func ReadBoolean(s val.Ref) bool {
	mustString(s)

	if s.IsIdString() {
		return s.IdStringID() == stringindex.True
	}
	return s.StringEquals("true")
}

// ReadUintmax parses s as an unsigned decimal integer.
func ReadUintmax(s val.Ref) (uint64, error) {
	mustString(s)

	switch {
	case s.IsContinuousString():
		return parsenum.ParseUnsigned(s.StringData())
	case s.IsIdString():
		return parsenum.ParseUnsignedString(s.IdStringValue())
	}

	var p parsenum.Parser
	c := s.StringCursor()
	seen := val.EachChunk(c, 0, c.Len(), p.Feed)
	n, err := p.Result()
	if err != nil {
		return 0, err
	}
	if seen != c.Len() {
		return 0, ErrShortCopy
	}
	return n, nil
}

// ReadTime parses s as a non-negative millisecond count.
func ReadTime(s val.Ref) (Time, error) {
	n, err := ReadUintmax(s)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, ErrTimeRange
	}
	return Time(n), nil
}

// GetStringID returns the interned identifier of s. Id strings are returned
// unchanged; other forms are interned in index. On failure it returns
// stringindex.Invalid and the error.
func GetStringID(s val.Ref, index *stringindex.Index) (stringindex.ID, error) {
	mustString(s)

	switch {
	case s.IsIdString():
		return s.IdStringID(), nil
	case s.IsContinuousString():
		return index.GetBin(s.StringData())
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var err error
	buf.B, err = linearize(buf.B[:0], s.StringCursor())
	if err != nil {
		return stringindex.Invalid, err
	}
	return index.GetBin(buf.B)
}

// linearize appends the full contents of c to dst.
func linearize(dst []byte, c val.Cursor) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, c.Len())...)
	if val.CopyOut(c, dst[start:], 0) != c.Len() {
		return dst[:start], ErrShortCopy
	}
	return dst, nil
}

// MakeUintmax returns a new contiguous string in mem holding the decimal
// representation of v. The result is invalid if mem refuses the allocation.
func MakeUintmax(mem *val.Mem, v uint64) val.Ref {
	r := mem.NewStringUninitialized(parsenum.DecimalSize(v))
	if !r.IsInvalid() {
		parsenum.WriteDecimal(v, r.StringData())
	}
	return r
}

// Strdup returns a newly allocated copy of the contents of s, which must not
// contain zero bytes.
func Strdup(s val.Ref) ([]byte, error) {
	mustString(s)
	assertNoNulls(s)

	switch {
	case s.IsContinuousString():
		return append(make([]byte, 0, s.StringLength()), s.StringData()...), nil
	case s.IsIdString():
		return []byte(s.IdStringValue()), nil
	}
	b, err := linearize(make([]byte, 0, s.StringLength()), s.StringCursor())
	if err != nil {
		return nil, err
	}
	return b, nil
}
