package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sigil/internal/errors"
)

func TestNewDropsCarriageReturns(t *testing.T) {
	c := New("a\r\nb")

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 'a', c.Current())
	require.NoError(t, c.Advance())
	assert.Equal(t, '\n', c.Current())
	assert.Equal(t, 2, c.Line())
	require.NoError(t, c.Advance())
	assert.Equal(t, 'b', c.Current())
	require.NoError(t, c.Advance())
	assert.True(t, c.AtEOF())
}

func TestLineStartsAtOneOrTwo(t *testing.T) {
	assert.Equal(t, 1, New("x").Line())
	assert.Equal(t, 2, New("\nx").Line())
	assert.Equal(t, 1, New("").Line())
}

func TestAdvanceAndRetreatBounds(t *testing.T) {
	c := New("ab")

	err := c.Retreat()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRange))

	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())
	assert.True(t, c.AtEOF())

	err = c.Advance()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOutOfRange))
}

func TestRetreatRestoresLine(t *testing.T) {
	c := New("a\nb")
	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())
	assert.Equal(t, 2, c.Line())

	require.NoError(t, c.Retreat())
	assert.Equal(t, 2, c.Line(), "cursor still on the line feed")
	require.NoError(t, c.Retreat())
	assert.Equal(t, 1, c.Line())
}

func TestReconsumeAtStartFails(t *testing.T) {
	c := New("abc")
	err := c.Reconsume()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRange))

	require.NoError(t, c.Advance())
	require.NoError(t, c.Reconsume())
	assert.Equal(t, 0, c.Pos())
}

func TestPeekNext(t *testing.T) {
	c := New("xy")
	r, err := c.PeekNext()
	require.NoError(t, err)
	assert.Equal(t, 'y', r)
	assert.Equal(t, 0, c.Pos())

	require.NoError(t, c.Advance())
	r, err = c.PeekNext()
	require.NoError(t, err)
	assert.Equal(t, EOF, r)

	require.NoError(t, c.Advance())
	_, err = c.PeekNext()
	assert.Error(t, err)
}

func TestConsumeIf(t *testing.T) {
	testCases := []struct {
		name            string
		input           string
		literal         string
		caseInsensitive bool
		matched         bool
		pos             int
	}{
		{"exact match", "]]]x", "]]]", true, true, 2},
		{"short input", "]]", "]]]", true, false, 0},
		{"mismatch leaves cursor", "]]x", "]]]", true, false, 0},
		{"case folded", "ABC", "abc", true, true, 2},
		{"case sensitive mismatch", "ABC", "abc", false, false, 0},
		{"eof is never matched", "-", "-]]", true, false, 0},
		{"unicode", "ééx", "éé", false, true, 1},
		{"empty literal", "abc", "", true, false, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(tc.input)
			assert.Equal(t, tc.matched, c.ConsumeIf(tc.literal, tc.caseInsensitive))
			assert.Equal(t, tc.pos, c.Pos())
		})
	}
}

func TestConsumeWhile(t *testing.T) {
	isQuote := func(r rune) bool { return r == '"' }

	t.Run("counts from next scalar", func(t *testing.T) {
		c := New(`"""a`)
		assert.Equal(t, 2, c.ConsumeWhile(isQuote))
		assert.Equal(t, 2, c.Pos())
		assert.Equal(t, '"', c.Current())
	})

	t.Run("no match keeps position", func(t *testing.T) {
		c := New(`"a`)
		assert.Equal(t, 0, c.ConsumeWhile(isQuote))
		assert.Equal(t, 0, c.Pos())
	})

	t.Run("stops at eof", func(t *testing.T) {
		c := New(`"""`)
		assert.Equal(t, 2, c.ConsumeWhile(func(rune) bool { return true }))
		assert.Equal(t, 2, c.Pos())
	})

	t.Run("counts line feeds", func(t *testing.T) {
		c := New("x\n\ny")
		c.ConsumeWhile(func(r rune) bool { return r == '\n' })
		assert.Equal(t, 3, c.Line())
	})
}

func TestCount(t *testing.T) {
	c := New("]]]]a")
	assert.Equal(t, 4, c.Count(']'))
	require.NoError(t, c.Advance())
	assert.Equal(t, 3, c.Count(']'))
	assert.Equal(t, 0, c.Count('a'))
}
