// Package parsenum converts between unsigned integers and their decimal text.
//
// Parsing works either over a single byte slice or incrementally over the
// segments of a fragmented string, so callers never have to join segments
// just to read a number.
package parsenum

import (
	"errors"
	"math"
)

var (
	// ErrSyntax is returned for empty input or input with a non-digit byte.
	ErrSyntax = errors.New("invalid unsigned integer syntax")
	// ErrRange is returned when the value does not fit in a uint64.
	ErrRange = errors.New("unsigned integer out of range")
)

// DecimalSize returns the number of bytes in the decimal representation of v.
func DecimalSize(v uint64) int {
	n := 1
	for v >= 10 {
		v /= 10
		n++
	}
	return n
}

// WriteDecimal writes the decimal representation of v into out, which must be
// exactly DecimalSize(v) bytes long.
func WriteDecimal(v uint64, out []byte) {
	if len(out) != DecimalSize(v) {
		panic("parsenum: output length does not match decimal size")
	}
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = byte('0' + v%10)
		v /= 10
	}
}

// AppendDecimal appends the decimal representation of v to dst.
func AppendDecimal(dst []byte, v uint64) []byte {
	n := DecimalSize(v)
	start := len(dst)
	for i := 0; i < n; i++ {
		dst = append(dst, 0)
	}
	WriteDecimal(v, dst[start:])
	return dst
}

// ParseUnsigned parses b as an unsigned decimal integer.
func ParseUnsigned(b []byte) (uint64, error) {
	var p Parser
	p.Feed(b)
	return p.Result()
}

// ParseUnsignedString is ParseUnsigned for a string.
func ParseUnsignedString(s string) (uint64, error) {
	var p Parser
	p.FeedString(s)
	return p.Result()
}

// Parser accumulates an unsigned decimal integer from consecutive segments.
// The zero value is ready to use.
type Parser struct {
	value  uint64
	digits int
	err    error
}

// Feed consumes the next segment. It reports false once the input is known to
// be invalid, after which further segments are ignored.
func (p *Parser) Feed(seg []byte) bool {
	if p.err != nil {
		return false
	}
	for _, c := range seg {
		if !p.step(c) {
			return false
		}
	}
	return true
}

// FeedString is Feed for a string segment.
func (p *Parser) FeedString(seg string) bool {
	if p.err != nil {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if !p.step(seg[i]) {
			return false
		}
	}
	return true
}

func (p *Parser) step(c byte) bool {
	if c < '0' || c > '9' {
		p.err = ErrSyntax
		return false
	}
	d := uint64(c - '0')
	if p.value > (math.MaxUint64-d)/10 {
		p.err = ErrRange
		return false
	}
	p.value = p.value*10 + d
	p.digits++
	return true
}

// Result returns the parsed value, or the first error encountered.
func (p *Parser) Result() (uint64, error) {
	if p.err != nil {
		return 0, p.err
	}
	if p.digits == 0 {
		return 0, ErrSyntax
	}
	return p.value, nil
}

// Reset clears the parser for reuse.
func (p *Parser) Reset() {
	*p = Parser{}
}
