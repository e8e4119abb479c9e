// Package tree assembles tag nodes into trees as the tokenizer closes them.
package tree

import (
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// CharacterTag is the name given to literal text nodes.
const CharacterTag = "char"

// Emitter receives every finished top-level tree.
type Emitter interface {
	// ContextFree reports the static context-free flag of a tag name.
	ContextFree(name string) bool
	// Emit validates and attaches a closed top-level tree.
	Emit(root *node.Tree) error
}

// Builder owns the stack of open tags for one tokenization pass.
type Builder struct {
	arena   *node.Arena
	stack   []node.ID
	sigil   int
	emitter Emitter
}

// NewBuilder creates a builder that hands finished trees to e.
func NewBuilder(e Emitter) *Builder {
	return &Builder{
		arena:   node.NewArena(),
		emitter: e,
	}
}

// Reset discards all open tags and zeroes the sigil counter.
func (b *Builder) Reset() {
	b.arena.Reset()
	b.stack = b.stack[:0]
	b.sigil = 0
}

// Sigil returns the current nesting counter.
func (b *Builder) Sigil() int {
	return b.sigil
}

// OpenSigil records a `[[` group.
func (b *Builder) OpenSigil() {
	b.sigil++
}

// CloseSigil records a matching `]]`.
func (b *Builder) CloseSigil() {
	b.sigil--
}

// Depth returns the number of entries on the stack.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Open pushes a new tag first seen on line.
func (b *Builder) Open(line int) *node.Node {
	id := b.arena.New(line)
	b.stack = append(b.stack, id)

	return b.arena.Get(id)
}

// Top returns the most recently opened tag, or nil.
func (b *Builder) Top() *node.Node {
	if len(b.stack) == 0 {
		return nil
	}

	return b.arena.Get(b.stack[len(b.stack)-1])
}

// EmitCharacter turns pending literal text into a char node. Empty text
// is ignored.
func (b *Builder) EmitCharacter(text string, line int) error {
	if text == "" {
		return nil
	}
	n := b.Open(line)
	n.Name = CharacterTag
	n.SetContent(text)

	return b.EmitTag(line)
}

// EmitTag closes the current tag. At nesting level zero the first opened
// tag becomes a finished tree and is handed to the emitter; deeper down the
// closed tags are re-parented under their nearest open ancestor.
func (b *Builder) EmitTag(line int) error {
	switch {
	case b.sigil < 0:
		return errors.NewSyntaxError(errors.ErrCodeMisnestedTags, "mis-nested tags")
	case len(b.stack) == 0:
		return errors.NewSyntaxError(errors.ErrCodeMisnestedTags, "closing sigil without an open tag")
	case b.sigil == 0:
		return b.emitRoot(line)
	}

	top := b.arena.Get(b.stack[len(b.stack)-1])
	top.Closed = true
	top.CloseLine = line

	return b.reparent()
}

func (b *Builder) emitRoot(line int) error {
	rootID := b.stack[0]
	root := b.arena.Get(rootID)
	root.Closed = true
	root.CloseLine = line
	root.ContextFree = b.emitter.ContextFree(root.Name)

	tree := b.arena.Detach(rootID)
	b.arena.Reset()
	b.stack = b.stack[:0]

	return b.emitter.Emit(tree)
}

// reparent scans the stack from the newest entry, collecting closed tags
// in document order until it reaches an open tag, which adopts them.
func (b *Builder) reparent() error {
	var closed []node.ID
	i := len(b.stack) - 1
	for ; i >= 0; i-- {
		id := b.stack[i]
		n := b.arena.Get(id)
		n.ContextFree = b.emitter.ContextFree(n.Name)
		if !n.Closed {
			break
		}
		closed = append([]node.ID{id}, closed...)
	}

	if i < 0 {
		return errors.NewSyntaxError(errors.ErrCodeMisnestedTags, "closed tags have no open ancestor")
	}
	if len(closed) > 0 {
		b.arena.AppendChildren(b.stack[i], closed)
	}
	b.stack = b.stack[:i+1]

	return nil
}
