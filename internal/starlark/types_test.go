package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeroisme/badvpn/pkg/ncd/stringindex"
	"github.com/zeroisme/badvpn/pkg/ncd/val"
	"go.starlark.net/starlark"
)

func TestToValue(t *testing.T) {
	tests := []struct {
		name     string
		input    starlark.Value
		wantStr  string
		wantKind val.Kind
		check    func(t *testing.T, r val.Ref)
	}{
		{
			name:     "string",
			input:    starlark.String("hello"),
			wantStr:  `"hello"`,
			wantKind: val.KindString,
			check: func(t *testing.T, r val.Ref) {
				assert.True(t, r.IsContinuousString())
			},
		},
		{
			name:     "composed",
			input:    NewComposed("he", "llo"),
			wantStr:  `"hello"`,
			wantKind: val.KindString,
			check: func(t *testing.T, r val.Ref) {
				assert.True(t, r.IsComposedString())
			},
		},
		{
			name:     "bool true",
			input:    starlark.True,
			wantStr:  `"true"`,
			wantKind: val.KindString,
			check: func(t *testing.T, r val.Ref) {
				assert.Equal(t, stringindex.True, r.IdStringID())
			},
		},
		{
			name:     "none",
			input:    starlark.None,
			wantStr:  `"<none>"`,
			wantKind: val.KindString,
			check: func(t *testing.T, r val.Ref) {
				assert.Equal(t, stringindex.None, r.IdStringID())
			},
		},
		{
			name:     "int",
			input:    starlark.MakeInt(42),
			wantStr:  `"42"`,
			wantKind: val.KindString,
		},
		{
			name:     "big uint",
			input:    starlark.MakeUint64(18446744073709551615),
			wantStr:  `"18446744073709551615"`,
			wantKind: val.KindString,
		},
		{
			name:     "negative int",
			input:    starlark.MakeInt(-5),
			wantStr:  `"-5"`,
			wantKind: val.KindString,
		},
		{
			name:     "list",
			input:    starlark.NewList([]starlark.Value{starlark.String("a"), starlark.Tuple{starlark.False}}),
			wantStr:  `{"a", {"false"}}`,
			wantKind: val.KindList,
		},
		{
			name:     "empty tuple",
			input:    starlark.Tuple{},
			wantStr:  `{}`,
			wantKind: val.KindList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := val.NewMem(stringindex.New())
			r, err := ToValue(mem, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, r.Kind())
			assert.Equal(t, tt.wantStr, r.String())
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestToValueErrors(t *testing.T) {
	mem := val.NewMem(stringindex.New())

	_, err := ToValue(mem, starlark.Float(1.5))
	assert.ErrorContains(t, err, "unsupported type: float")

	_, err = ToValue(mem, starlark.NewList([]starlark.Value{starlark.NewDict(0)}))
	assert.ErrorContains(t, err, "list index 0: unsupported type: dict")

	self := starlark.NewList(nil)
	require.NoError(t, self.Append(self))
	_, err = ToValue(mem, self)
	assert.ErrorContains(t, err, "nested deeper")
}

func TestToValueAllocFailure(t *testing.T) {
	mem := val.NewMem(stringindex.New(), val.WithMaxValues(1))

	_, err := ToValue(mem, starlark.Tuple{starlark.String("a")})
	assert.ErrorIs(t, err, val.ErrAlloc)
}

func TestToStarlark(t *testing.T) {
	mem := val.NewMem(stringindex.New())

	list := mem.NewList(3)
	require.NoError(t, mem.ListAppend(list, mem.NewString([]byte("a"))))
	require.NoError(t, mem.ListAppend(list, mem.NewIdString(stringindex.True)))
	require.NoError(t, mem.ListAppend(list, mem.NewComposedString(val.SegmentsOf("b", "c"))))

	sv, err := ToStarlark(list)
	require.NoError(t, err)

	l, ok := sv.(*starlark.List)
	require.True(t, ok)
	require.Equal(t, 3, l.Len())
	assert.Equal(t, starlark.String("a"), l.Index(0))
	assert.Equal(t, starlark.String("true"), l.Index(1))

	c, ok := l.Index(2).(*Composed)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, c.Parts())

	_, err = ToStarlark(val.Ref{})
	assert.Error(t, err)
}

// shortCursor claims four bytes but yields two.
type shortCursor struct{}

func (shortCursor) Len() int { return 4 }

func (shortCursor) Chunk(offset int) []byte {
	if offset < 2 {
		return []byte("12")[offset:]
	}
	return nil
}

func TestToStarlarkShortCursor(t *testing.T) {
	mem := val.NewMem(stringindex.New())

	list := mem.NewList(1)
	require.NoError(t, mem.ListAppend(list, mem.NewComposedString(shortCursor{})))

	_, err := ToStarlark(list)
	assert.ErrorIs(t, err, val.ErrShortCursor)
}

func TestComposedValue(t *testing.T) {
	c := NewComposed("ab", "", "c")

	assert.Equal(t, "composed_string", c.Type())
	assert.Equal(t, `"abc"`, c.String())
	assert.Equal(t, "abc", c.Join())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, starlark.True, c.Truth())
	assert.Equal(t, starlark.False, NewComposed().Truth())

	h1, err := c.Hash()
	require.NoError(t, err)
	h2, err := starlark.String("abc").Hash()
	require.NoError(t, err)
	assert.Equal(t, h2, h1)
}
