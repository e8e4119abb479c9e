// Package tokenizer implements the character driven state machine that
// turns template text into tag trees.
//
// The machine reads one scalar at a time from a cursor and mutates a
// tree.Builder. Literal text is flushed as char nodes whenever a tag
// boundary is crossed; tags are emitted when their closing sigil is read.
// Every grammar violation is fatal to the pass.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/conneroisu/sigil/internal/cursor"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/tree"
)

// rawFence is the number of brackets that open a raw block.
const rawFence = 3

// Option configures a Machine.
type Option func(*Machine)

// WithEOFHandler installs a hook run when the input is exhausted or when
// tokenization is stopped early.
func WithEOFHandler(fn func(*Machine)) Option {
	return func(m *Machine) {
		m.onEOF = fn
	}
}

// Machine is the tokenizer for a single processing session.
type Machine struct {
	builder *tree.Builder
	cur     *cursor.Cursor
	state   State
	literal []rune

	// quoteFence is the width of the double quote run that opened the
	// current argument.
	quoteFence int
	// rawExtra counts brackets beyond the third that opened a raw block.
	rawExtra int
	// rawFrozen stops rawExtra from growing once raw content starts.
	rawFrozen bool

	stopped bool
	onEOF   func(*Machine)
}

// New creates a machine feeding b.
func New(b *tree.Builder, opts ...Option) *Machine {
	m := &Machine{builder: b, quoteFence: 1}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Line returns the line of the scalar being processed.
func (m *Machine) Line() int {
	if m.cur == nil {
		return 0
	}

	return m.cur.Line()
}

// Sigil returns the builder's nesting counter.
func (m *Machine) Sigil() int {
	return m.builder.Sigil()
}

// Stop ends the current pass before the next scalar is read.
func (m *Machine) Stop() {
	m.stopped = true
}

// Tokenize runs a full pass over src. name is only used to locate errors.
func (m *Machine) Tokenize(name, src string) error {
	m.reset(src)

	for {
		if m.stopped {
			m.stopped = false
			if m.onEOF != nil {
				m.onEOF(m)
			}
			return nil
		}

		r := m.cur.Current()
		if err := m.step(r); err != nil {
			return errors.Locate(err, name, m.cur.Line())
		}

		if r == cursor.EOF {
			if m.onEOF != nil {
				m.onEOF(m)
			}
			return nil
		}

		if err := m.cur.Advance(); err != nil {
			return errors.Locate(err, name, m.cur.Line())
		}
	}
}

func (m *Machine) reset(src string) {
	m.cur = cursor.New(src)
	m.state = Initial
	m.literal = m.literal[:0]
	m.quoteFence = 1
	m.rawExtra = 0
	m.rawFrozen = false
	m.stopped = false
	m.builder.Reset()
}

func (m *Machine) step(r rune) error {
	switch m.state {
	case Initial:
		return m.initial(r)
	case LeftBracketSeen:
		return m.leftBracketSeen(r)
	case TagOpen:
		return m.tagOpen(r)
	case TagName:
		return m.tagName(r)
	case TagArgsOpenParen:
		return m.tagArgsOpenParen(r)
	case TagArgsCloseParen:
		return m.tagArgsCloseParen(r)
	case ArgSingleQuoted:
		return m.argSingleQuoted(r)
	case ArgDoubleQuotedFenceProbe:
		return m.argDoubleQuotedFenceProbe()
	case ArgDoubleQuoted:
		return m.argDoubleQuoted(r)
	case AfterArgValue:
		return m.afterArgValue(r)
	case TagClosing:
		return m.tagClosing(r)
	case RawBlock:
		return m.rawBlock(r)
	case CommentBlock:
		return m.commentBlock(r)
	}

	return errors.NewRangeError(errors.ErrCodeOutOfRange, fmt.Sprintf("unknown tokenizer state %d", m.state))
}

func (m *Machine) flushLiteral() error {
	if len(m.literal) == 0 {
		return nil
	}
	text := string(m.literal)
	m.literal = m.literal[:0]

	return m.builder.EmitCharacter(text, m.cur.Line())
}

func (m *Machine) reconsumeIn(s State) error {
	if err := m.cur.Reconsume(); err != nil {
		return err
	}
	m.state = s

	return nil
}

func (m *Machine) eof() error {
	return errors.NewUnexpectedEOF(m.state.String())
}

func (m *Machine) initial(r rune) error {
	switch r {
	case '[':
		m.state = LeftBracketSeen
		return m.flushLiteral()
	case ']':
		m.state = TagClosing
		return m.flushLiteral()
	case cursor.EOF:
		if err := m.flushLiteral(); err != nil {
			return err
		}
		if m.builder.Sigil() != 0 {
			eof := errors.NewUnexpectedEOF(m.state.String())
			eof.Message = fmt.Sprintf("unexpected end of input with %d unclosed sigil(s)", m.builder.Sigil())
			return eof
		}
		return nil
	}
	m.literal = append(m.literal, r)

	return nil
}

func (m *Machine) leftBracketSeen(r rune) error {
	switch r {
	case '[':
		m.builder.OpenSigil()
		m.state = TagOpen
		return nil
	case cursor.EOF:
		return m.eof()
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidSigil, "invalid sigil identifier")
}

func (m *Machine) tagOpen(r rune) error {
	switch {
	case r == '[':
		m.state = RawBlock
		return nil
	case r == '-':
		m.state = CommentBlock
		return nil
	case r == cursor.EOF:
		return m.eof()
	case isTagNameChar(r):
		m.builder.Open(m.cur.Line())
		return m.reconsumeIn(TagName)
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidOpeningChar,
		fmt.Sprintf("invalid character %q upon opening tag", r))
}

func (m *Machine) rawBlock(r rune) error {
	if r == ']' {
		if m.cur.ConsumeIf(strings.Repeat("]", rawFence+m.rawExtra), false) {
			m.builder.CloseSigil()
			m.rawExtra = 0
			m.rawFrozen = false
			m.state = Initial
			return m.flushLiteral()
		}
	}

	if r == '[' && !m.rawFrozen {
		m.rawExtra++
		return nil
	}

	if r == cursor.EOF {
		return m.eof()
	}

	m.literal = append(m.literal, r)
	m.rawFrozen = true

	return nil
}

func (m *Machine) commentBlock(r rune) error {
	if r == '-' && m.cur.ConsumeIf("-]]", false) {
		m.builder.CloseSigil()
		m.state = Initial
		return nil
	}
	if r == cursor.EOF {
		return m.eof()
	}

	return nil
}

func (m *Machine) tagName(r rune) error {
	switch {
	case r == cursor.EOF:
		return m.eof()
	case isTagNameChar(r):
		m.builder.Top().AppendName(r)
		return nil
	case isSeparator(r):
		return nil
	case r == ']':
		m.state = TagClosing
		return nil
	case r == '(':
		m.state = TagArgsOpenParen
		return nil
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidTagName,
		fmt.Sprintf("invalid tag name identifier %q", r))
}

func (m *Machine) tagArgsOpenParen(r rune) error {
	switch r {
	case '\'':
		m.builder.Top().Args.Add("")
		m.state = ArgSingleQuoted
		return nil
	case '"':
		m.builder.Top().Args.Add("")
		return m.reconsumeIn(ArgDoubleQuotedFenceProbe)
	case ')':
		m.state = TagArgsCloseParen
		return nil
	case cursor.EOF:
		return m.eof()
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidTagName,
		fmt.Sprintf("invalid identifier %q after opening arg parenthesis", r))
}

func (m *Machine) argSingleQuoted(r rune) error {
	switch r {
	case '\'':
		m.state = AfterArgValue
		return nil
	case '(', ')':
		return errors.NewSyntaxError(errors.ErrCodeInvalidSigil,
			fmt.Sprintf("`%c` is an invalid arg identifier", r))
	case cursor.EOF:
		return m.eof()
	}
	m.builder.Top().Args.AppendToLast(r)

	return nil
}

// argDoubleQuotedFenceProbe runs on the opening quote and widens the fence
// by every quote that immediately follows it.
func (m *Machine) argDoubleQuotedFenceProbe() error {
	m.quoteFence = 1
	if next, err := m.cur.PeekNext(); err == nil && next == '"' {
		m.quoteFence += m.cur.ConsumeWhile(func(c rune) bool { return c == '"' })
	}
	m.state = ArgDoubleQuoted

	return nil
}

func (m *Machine) argDoubleQuoted(r rune) error {
	if r == '"' && m.cur.ConsumeIf(strings.Repeat(`"`, m.quoteFence), false) {
		m.quoteFence = 1
		m.state = AfterArgValue
		return nil
	}

	if m.quoteFence == 1 && (r == '(' || r == ')') {
		return errors.NewSyntaxError(errors.ErrCodeInvalidSigil,
			fmt.Sprintf("`%c` is an invalid arg identifier", r))
	}

	if r == cursor.EOF {
		return m.eof()
	}
	m.builder.Top().Args.AppendToLast(r)

	return nil
}

func (m *Machine) afterArgValue(r rune) error {
	switch {
	case isSeparator(r) || r == ',':
		return nil
	case r == cursor.EOF:
		return m.eof()
	case r == '\'':
		m.builder.Top().Args.Add("")
		m.state = ArgSingleQuoted
		return nil
	case r == '"':
		m.builder.Top().Args.Add("")
		return m.reconsumeIn(ArgDoubleQuotedFenceProbe)
	case r == ')':
		m.state = TagArgsCloseParen
		return nil
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidSigil, "close tag arg with right parenthesis")
}

func (m *Machine) tagArgsCloseParen(r rune) error {
	switch r {
	case ']':
		m.state = TagClosing
		return nil
	case cursor.EOF:
		return m.eof()
	case '[':
		m.state = LeftBracketSeen
		return m.flushLiteral()
	}
	m.builder.Top().AppendContent(r)

	return nil
}

func (m *Machine) tagClosing(r rune) error {
	switch r {
	case ']':
		m.builder.CloseSigil()
		m.state = Initial
		return m.builder.EmitTag(m.cur.Line())
	case cursor.EOF:
		return m.eof()
	}

	return errors.NewSyntaxError(errors.ErrCodeInvalidSigil, "invalid sigil identifier")
}
