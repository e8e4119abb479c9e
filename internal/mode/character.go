package mode

import (
	"context"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/node"
)

// Character stores literal text.
type Character struct{}

// Validate accepts every character node.
func (Character) Validate(context.Context, Host, *node.Tree) error {
	return nil
}

// Attach appends the text as a char unit.
func (Character) Attach(_ context.Context, h Host, t *node.Tree) error {
	h.Content().AddContent(t.OpenLine, BuiltinChar.String(), t.Content, nil)

	return nil
}

// Render returns the stored text verbatim.
func (Character) Render(_ context.Context, _ Host, u content.Unit) (string, error) {
	return u.Text, nil
}
