package mode

import (
	"context"
	"strings"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/node"
)

// fallbackSeparator splits alternative variable paths.
const fallbackSeparator = ".."

// rawVariable is the tag name that skips escaping.
const rawVariable = "_v"

// Variable interpolates a value from the data root.
//
//	[[v('user.name .. user.login', 'anonymous')]]
type Variable struct{}

// Validate requires a path and an optional default.
func (Variable) Validate(_ context.Context, _ Host, t *node.Tree) error {
	return checkArgs("var", t, 1, 2)
}

// Attach stores the arguments as a var or _v unit.
func (Variable) Attach(_ context.Context, h Host, t *node.Tree) error {
	m := BuiltinVar.String()
	if Normalize(t.Name) == rawVariable {
		m = rawVariable
	}
	h.Content().AddContent(t.OpenLine, m, t.Content, t.Args.Clone())

	return nil
}

// Render resolves the path, trying each alternative in turn.
func (Variable) Render(_ context.Context, h Host, u content.Unit) (string, error) {
	value := ""
	for _, path := range strings.Split(u.Args.First(), fallbackSeparator) {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		value = Stringify(h.Lookup(path))
		if value != "" {
			break
		}
	}

	if value == "" {
		if def, ok := u.Args.At(1); ok {
			value = def
		}
	}

	if u.Mode == rawVariable {
		return value + u.Text, nil
	}

	return u.Text + Escape(value), nil
}
