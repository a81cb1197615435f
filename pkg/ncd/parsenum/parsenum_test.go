package parsenum

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalSize(t *testing.T) {
	values := []uint64{0, 1, 9, 10, 99, 100, 12345, math.MaxInt64, math.MaxUint64 - 1, math.MaxUint64}

	for _, v := range values {
		t.Run(strconv.FormatUint(v, 10), func(t *testing.T) {
			assert.Equal(t, len(strconv.FormatUint(v, 10)), DecimalSize(v))
		})
	}
}

func TestWriteDecimal(t *testing.T) {
	values := []uint64{0, 7, 10, 4096, 18446744073709551615}

	for _, v := range values {
		want := strconv.FormatUint(v, 10)
		t.Run(want, func(t *testing.T) {
			out := make([]byte, DecimalSize(v))
			WriteDecimal(v, out)
			assert.Equal(t, want, string(out))
			assert.Equal(t, want, string(AppendDecimal([]byte(nil), v)))
		})
	}
}

func TestWriteDecimalWrongLength(t *testing.T) {
	assert.Panics(t, func() { WriteDecimal(123, make([]byte, 2)) })
}

func TestParseUnsigned(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr error
	}{
		{name: "zero", input: "0", want: 0},
		{name: "leading zeros", input: "007", want: 7},
		{name: "max", input: "18446744073709551615", want: math.MaxUint64},
		{name: "overflow by one", input: "18446744073709551616", wantErr: ErrRange},
		{name: "overflow by length", input: "100000000000000000000", wantErr: ErrRange},
		{name: "empty", input: "", wantErr: ErrSyntax},
		{name: "sign", input: "+1", wantErr: ErrSyntax},
		{name: "negative", input: "-1", wantErr: ErrSyntax},
		{name: "space", input: " 1", wantErr: ErrSyntax},
		{name: "trailing letter", input: "12a", wantErr: ErrSyntax},
		{name: "hex", input: "0x10", wantErr: ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnsigned([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserSegments(t *testing.T) {
	splits := [][]string{
		{"12345"},
		{"123", "45"},
		{"1", "2345"},
		{"", "12", "", "345", ""},
		{"1", "2", "3", "4", "5"},
	}

	for _, segs := range splits {
		var p Parser
		for _, s := range segs {
			p.Feed([]byte(s))
		}
		got, err := p.Result()
		require.NoError(t, err, "segments %q", segs)
		assert.Equal(t, uint64(12345), got, "segments %q", segs)
	}
}

func TestParserStopsAfterError(t *testing.T) {
	var p Parser
	assert.True(t, p.Feed([]byte("12")))
	assert.False(t, p.Feed([]byte("x")))
	assert.False(t, p.Feed([]byte("3")))

	_, err := p.Result()
	assert.ErrorIs(t, err, ErrSyntax)

	p.Reset()
	p.Feed([]byte("3"))
	got, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 42, 1 << 32, math.MaxInt64, math.MaxInt64 + 1, math.MaxUint64} {
		got, err := ParseUnsigned(AppendDecimal(nil, v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParseUnsignedString(t *testing.T) {
	got, err := ParseUnsignedString("4096")
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), got)

	_, err = ParseUnsignedString("true")
	assert.ErrorIs(t, err, ErrSyntax)

	var p Parser
	p.FeedString("12")
	p.Feed([]byte("34"))
	got, err = p.Result()
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), got)
}
