package mode

import (
	"context"
	"slices"
	"strings"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// Inherit makes the current template an extension of one or more parent
// templates. It must be the first tag of the template.
//
//	[[inherit('layouts/base')]]
//	[[b('title')Home]]
type Inherit struct{}

// Validate requires at least one parent and nothing attached before it.
func (Inherit) Validate(_ context.Context, h Host, t *node.Tree) error {
	if t.Args.Len() < 1 {
		return errors.ErrArgumentCount("inherit", 0, 1, maxFunctionArgs)
	}
	if t.OpenLine != 1 {
		return errors.NewModeValidationError(errors.ErrCodeValidation, "inherit must be on the first line of a template")
	}
	if len(h.Content().Blocks) > 0 || slices.ContainsFunc(h.Content().Units, attachedBefore) {
		return errors.NewModeValidationError(errors.ErrCodeValidation, "inherit must be the first tag of a template")
	}

	return nil
}

// attachedBefore reports whether u counts as a tag ahead of inherit.
// Whitespace-only literal text does not.
func attachedBefore(u content.Unit) bool {
	return u.Mode != BuiltinChar.String() || strings.TrimSpace(u.Text) != ""
}

// Attach tokenizes each parent in order inside one isolated session and
// replaces the current content with the parents' units and blocks. Blocks
// defined after the tag then override the parents' definitions.
func (Inherit) Attach(ctx context.Context, h Host, t *node.Tree) error {
	child := h.Isolate()
	merged := content.New()
	for _, parent := range t.Args.Values() {
		if err := child.Tokenize(ctx, parent); err != nil {
			return err
		}
		parentContent := child.Content().Clone()
		merged.AddUnits(parentContent.Units)
		merged.MergeBlocks(parentContent.Blocks)
	}
	h.Replace(merged, child.Storage())

	return nil
}
