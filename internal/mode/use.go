package mode

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// Use renders a named block in place.
//
// use and _use render the block once per session and reuse the result;
// usec and _usec render it on every occurrence. The underscore variants
// skip HTML escaping.
type Use struct{}

func useIsRaw(m string) bool {
	return strings.HasPrefix(m, "_")
}

func useIsCached(m string) bool {
	return !strings.HasSuffix(m, "c")
}

// Validate requires a block name and no block children.
func (Use) Validate(_ context.Context, _ Host, t *node.Tree) error {
	if err := checkArgs("use", t, 1, 1); err != nil {
		return err
	}
	for _, child := range t.Children {
		if child.Is("b", "block") {
			return errors.NewModeValidationError(errors.ErrCodeValidation,
				fmt.Sprintf("you can't nest block `%s` in a use tag", child.Args.First()))
		}
	}

	return nil
}

// Attach adds a unit for an already defined block.
func (Use) Attach(_ context.Context, h Host, t *node.Tree) error {
	name := t.Args.First()
	if !h.Content().IsBlock(name) {
		return errors.ErrUnknownBlock(name, h.Content().BlockNames())
	}
	h.Content().AddContent(t.OpenLine, Normalize(t.Name), "", t.Args.Clone())

	return nil
}

// Render returns the block output, cached under the block name in the use
// storage slot for the caching variants.
func (Use) Render(ctx context.Context, h Host, u content.Unit) (string, error) {
	name := u.Args.First()

	var out string
	if useIsCached(u.Mode) {
		cache := h.Storage().StringMap(BuiltinUse.String())
		cached, ok := cache[name]
		if !ok {
			rendered, err := h.RenderBlock(ctx, name)
			if err != nil {
				return "", err
			}
			cached = rendered
			cache[name] = cached
		}
		out = cached
	} else {
		rendered, err := h.RenderBlock(ctx, name)
		if err != nil {
			return "", err
		}
		out = rendered
	}

	if useIsRaw(u.Mode) {
		return out, nil
	}

	return Escape(out), nil
}
