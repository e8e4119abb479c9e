package mode

import (
	"context"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// Import pulls the block definitions of another template into the
// current session. Its units are discarded.
//
//	[[import('partials/header')]]
type Import struct{}

// Validate requires a template name and no nested tags.
func (Import) Validate(_ context.Context, _ Host, t *node.Tree) error {
	if err := checkArgs("import", t, 1, 1); err != nil {
		return err
	}
	if t.HasChildren() {
		return errors.NewModeValidationError(errors.ErrCodeValidation, "import can't have a nested tag")
	}

	return nil
}

// Attach tokenizes the template in an isolated session and merges its
// blocks, overriding blocks of the same name.
func (Import) Attach(ctx context.Context, h Host, t *node.Tree) error {
	child := h.Isolate()
	if err := child.Tokenize(ctx, t.Args.First()); err != nil {
		return err
	}
	h.Content().MergeBlocks(child.Content().Blocks)

	return nil
}
