package mode

import (
	"context"
	"fmt"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// Block defines a named, reusable list of units.
//
//	[[b('greet')Hello [[arg('1')]]!]]
type Block struct{}

// Validate requires a name and rejects nested blocks anywhere below the
// tag. Direct children are validated by their own modes.
func (Block) Validate(ctx context.Context, h Host, t *node.Tree) error {
	if err := checkArgs("block", t, 1, 2); err != nil {
		return err
	}

	if nested := t.Find(true, "b", "block"); nested != nil {
		return errors.NewModeValidationError(errors.ErrCodeValidation,
			fmt.Sprintf("you can't nest block `%s` in block `%s`", nested.Args.First(), t.Args.First()))
	}

	for _, child := range t.Children {
		m, ok := h.Registry().Lookup(child.Name)
		if !ok {
			return errors.ErrUnknownMode(child.Name, h.Registry().Names())
		}
		if err := m.Validate(ctx, h, child); err != nil {
			return err
		}
	}

	return nil
}

// Attach replaces the block definition with its literal content followed
// by one unit per direct child.
func (Block) Attach(_ context.Context, h Host, t *node.Tree) error {
	name := t.Args.First()
	h.Content().DefineBlock(name, []content.Unit{
		content.NewUnit(BuiltinChar.String(), t.Content, nil, nil).At(t.OpenLine),
	})
	for _, child := range t.Children {
		u := content.NewUnit(child.Name, child.Content, child.Args.Clone(), cloneTrees(child.Children))
		h.Content().AppendToBlock(name, u.At(child.OpenLine))
	}

	return nil
}

func cloneTrees(trees []*node.Tree) []*node.Tree {
	if trees == nil {
		return nil
	}
	out := make([]*node.Tree, len(trees))
	for i, t := range trees {
		out[i] = t.Clone()
	}

	return out
}
