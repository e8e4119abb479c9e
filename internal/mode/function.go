package mode

import (
	"context"
	"fmt"
	"strconv"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// maxFunctionArgs bounds the arguments of a function call, target included.
const maxFunctionArgs = 100

// Function implements both the func call and the arg placeholder it
// substitutes.
//
//	[[b('greet')Hello [[arg('1')]]!]]
//	[[func('greet', 'World')]]
//
// Argument k of a call binds placeholder k. An argument naming a known
// block is bound to that block's rendered output; any other argument is
// bound literally.
type Function struct{}

func isArgTag(name string) bool {
	return Classify(name) == BuiltinArg
}

// Validate checks arity and that the call targets a defined block.
func (Function) Validate(_ context.Context, h Host, t *node.Tree) error {
	if isArgTag(t.Name) {
		return checkArgs("arg", t, 1, 1)
	}
	if err := checkArgs("func", t, 2, maxFunctionArgs); err != nil {
		return err
	}
	target := t.Args.First()
	if !h.Content().IsBlock(target) {
		return errors.ErrUnknownBlock(target, h.Content().BlockNames())
	}

	return nil
}

// Attach records the call signature and adds a func unit. A top-level
// arg tag adds an arg unit that fails at render time.
func (Function) Attach(_ context.Context, h Host, t *node.Tree) error {
	if isArgTag(t.Name) {
		h.Content().AddContent(t.OpenLine, BuiltinArg.String(), t.Content, t.Args.Clone())
		return nil
	}

	target := t.Args.First()
	calls := h.Storage().NestedStringMap(BuiltinFunc.String())
	signature := make(map[string]string, t.Args.Len()-1)
	for k, v := range t.Args.Values()[1:] {
		signature[strconv.Itoa(k+1)] = v
	}
	calls[target] = signature

	h.Content().AddContent(t.OpenLine, BuiltinFunc.String(), t.Content, t.Args.Clone())

	return nil
}

// Render substitutes placeholders while rendering the target block, or
// resolves a placeholder against the innermost call.
func (f Function) Render(ctx context.Context, h Host, u content.Unit) (string, error) {
	if u.Mode == BuiltinArg.String() {
		return f.renderArg(h, u)
	}

	target := u.Args.First()
	if !h.Content().IsBlock(target) {
		return "", errors.ErrUnknownBlock(target, h.Content().BlockNames())
	}

	bindings := make(map[string]string, u.Args.Len()-1)
	for k, v := range u.Args.Values()[1:] {
		bound := v
		if h.Content().IsBlock(v) {
			rendered, err := h.RenderBlock(ctx, v)
			if err != nil {
				return "", err
			}
			bound = rendered
		}
		bindings[strconv.Itoa(k+1)] = bound
	}

	h.Frames().Push(bindings)
	defer h.Frames().Pop()

	out, err := h.RenderBlock(ctx, target)
	if err != nil {
		return "", err
	}

	return out + u.Text, nil
}

func (Function) renderArg(h Host, u content.Unit) (string, error) {
	key := u.Args.First()
	value, found, active := h.Frames().Lookup(key)
	if !active {
		return "", errors.NewModeError(errors.ErrCodeArgOutsideFunc,
			fmt.Sprintf("[[arg(`%s`)]] should only be called within a function", key))
	}
	if !found {
		return u.Text, nil
	}

	return value + u.Text, nil
}
