package val

import "sort"

// Cursor gives chunked read access to a string whose bytes need not be
// stored in one place.
type Cursor interface {
	// Len returns the logical length of the string.
	Len() int
	// Chunk returns the longest run of bytes that is stored contiguously
	// starting at offset. For 0 <= offset < Len() the result is non-empty.
	// The caller must not modify it.
	Chunk(offset int) []byte
}

// Bytes is a Cursor over a single contiguous run.
type Bytes []byte

// Len implements Cursor.
func (b Bytes) Len() int { return len(b) }

// Chunk implements Cursor.
func (b Bytes) Chunk(offset int) []byte { return b[offset:] }

// Segments is a Cursor over a sequence of byte slices that together form one
// logical string.
type Segments struct {
	segs   [][]byte
	starts []int
	length int
}

// NewSegments builds a Segments cursor. Empty segments are dropped. The
// slices are not copied.
func NewSegments(segs ...[]byte) *Segments {
	s := &Segments{}
	for _, seg := range segs {
		if len(seg) == 0 {
			continue
		}
		s.segs = append(s.segs, seg)
		s.starts = append(s.starts, s.length)
		s.length += len(seg)
	}
	return s
}

// SegmentsOf is NewSegments for string parts.
func SegmentsOf(parts ...string) *Segments {
	segs := make([][]byte, len(parts))
	for i, p := range parts {
		segs[i] = []byte(p)
	}
	return NewSegments(segs...)
}

// Len implements Cursor.
func (s *Segments) Len() int { return s.length }

// Count returns the number of non-empty segments.
func (s *Segments) Count() int { return len(s.segs) }

// Chunk implements Cursor.
func (s *Segments) Chunk(offset int) []byte {
	if offset < 0 || offset >= s.length {
		return nil
	}
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > offset }) - 1
	return s.segs[i][offset-s.starts[i]:]
}

// EachChunk calls fn for every contiguous run covering [offset, offset+length)
// of c, in order, until fn returns false. It stops early if c yields an empty
// chunk before the range is covered. It returns the number of bytes passed to
// fn, which is less than length when c came up short.
func EachChunk(c Cursor, offset, length int, fn func(chunk []byte) bool) int {
	start, end := offset, offset+length
	for offset < end {
		chunk := c.Chunk(offset)
		if len(chunk) == 0 {
			break
		}
		if len(chunk) > end-offset {
			chunk = chunk[:end-offset]
		}
		offset += len(chunk)
		if !fn(chunk) {
			break
		}
	}
	return offset - start
}

// CopyOut copies bytes of c starting at offset into dst and returns the
// number of bytes copied.
func CopyOut(c Cursor, dst []byte, offset int) int {
	length := c.Len() - offset
	if length > len(dst) {
		length = len(dst)
	}
	n := 0
	EachChunk(c, offset, length, func(chunk []byte) bool {
		n += copy(dst[n:], chunk)
		return true
	})
	return n
}
