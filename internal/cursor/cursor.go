// Package cursor provides random access navigation over a decoded template.
//
// The input is materialized as a slice of Unicode scalar values followed by
// an EOF sentinel. Carriage returns are dropped while decoding, so no cursor
// operation ever observes one. The line counter always equals one plus the
// number of line feeds at or before the cursor position.
package cursor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/conneroisu/sigil/internal/errors"
)

// EOF is the sentinel scalar placed after the final input character.
const EOF rune = -1

// Cursor walks a decoded character sequence.
type Cursor struct {
	chars []rune
	pos   int
	line  int
}

// New decodes src into a cursor positioned on its first scalar.
func New(src string) *Cursor {
	chars := make([]rune, 0, utf8.RuneCountInString(src)+1)
	for _, r := range src {
		if r == '\r' {
			continue
		}
		chars = append(chars, r)
	}
	chars = append(chars, EOF)

	c := &Cursor{chars: chars, line: 1}
	if chars[0] == '\n' {
		c.line++
	}

	return c
}

// Current returns the scalar under the cursor.
func (c *Cursor) Current() rune {
	return c.chars[c.pos]
}

// Pos returns the cursor index.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the number of scalars including the EOF sentinel.
func (c *Cursor) Len() int {
	return len(c.chars)
}

// Line returns the current 1-based line number.
func (c *Cursor) Line() int {
	return c.line
}

// AtEOF reports whether the cursor rests on the EOF sentinel.
func (c *Cursor) AtEOF() bool {
	return c.chars[c.pos] == EOF
}

// Advance moves one scalar forward.
func (c *Cursor) Advance() error {
	next := c.pos + 1
	if next >= len(c.chars) {
		return errors.NewRangeError(errors.ErrCodeOutOfRange,
			fmt.Sprintf("cannot advance past index %d", c.pos))
	}
	c.pos = next
	if c.chars[next] == '\n' {
		c.line++
	}

	return nil
}

// Retreat moves one scalar backward.
func (c *Cursor) Retreat() error {
	if c.pos == 0 {
		return errors.NewRangeError(errors.ErrCodeOutOfRange, "cannot retreat before index 0")
	}
	if c.chars[c.pos] == '\n' {
		c.line--
	}
	c.pos--

	return nil
}

// Reconsume steps back so that the next Advance yields the current scalar
// again. Reconsuming the first scalar is a range error.
func (c *Cursor) Reconsume() error {
	if c.pos == 0 {
		return errors.NewRangeError(errors.ErrCodeOutOfRange, "cannot reconsume at index 0")
	}

	return c.Retreat()
}

// PeekNext returns the scalar after the cursor without moving.
func (c *Cursor) PeekNext() (rune, error) {
	next := c.pos + 1
	if next >= len(c.chars) {
		return EOF, errors.NewRangeError(errors.ErrCodeOutOfRange,
			fmt.Sprintf("no scalar after index %d", c.pos))
	}

	return c.chars[next], nil
}

// ConsumeIf matches literal starting at the current scalar. On a match the
// cursor rests on the last matched scalar, so the following Advance moves
// past the literal; otherwise the cursor does not move.
func (c *Cursor) ConsumeIf(literal string, caseInsensitive bool) bool {
	want := []rune(literal)
	if len(want) == 0 {
		return false
	}
	end := c.pos + len(want)
	if end > len(c.chars) {
		return false
	}

	got := c.chars[c.pos:end]
	for _, r := range got {
		if r == EOF {
			return false
		}
	}

	if caseInsensitive {
		if !strings.EqualFold(string(got), literal) {
			return false
		}
	} else if string(got) != literal {
		return false
	}

	for c.pos < end-1 {
		c.pos++
		if c.chars[c.pos] == '\n' {
			c.line++
		}
	}

	return true
}

// ConsumeWhile advances from the next scalar while pred holds and returns
// how many scalars were consumed. The cursor rests on the last accepted
// scalar. EOF always stops consumption.
func (c *Cursor) ConsumeWhile(pred func(rune) bool) int {
	n := 0
	for {
		next := c.pos + 1
		if next >= len(c.chars) {
			return n
		}
		r := c.chars[next]
		if r == EOF || !pred(r) {
			return n
		}
		c.pos = next
		if r == '\n' {
			c.line++
		}
		n++
	}
}

// Count returns how many times r repeats consecutively from the cursor.
func (c *Cursor) Count(r rune) int {
	n := 0
	for i := c.pos; i < len(c.chars) && c.chars[i] == r; i++ {
		n++
	}

	return n
}
