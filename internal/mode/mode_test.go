package mode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

func args(values ...string) node.Args {
	out := make(node.Args, 0, len(values))
	for _, v := range values {
		out = append(out, node.Arg{Value: v})
	}

	return out
}

func tag(name string, a node.Args, text string, children ...*node.Tree) *node.Tree {
	return &node.Tree{
		Name:        name,
		Args:        a,
		Content:     text,
		Children:    children,
		OpenLine:    1,
		CloseLine:   1,
		ContextFree: Classify(name) != BuiltinInherit,
	}
}

// attach validates and attaches t the way a session does.
func attach(t *testing.T, h *fakeHost, tree *node.Tree) error {
	t.Helper()
	m, ok := h.registry.Lookup(tree.Name)
	require.True(t, ok, "mode %q should be bound", tree.Name)
	if err := m.Validate(context.Background(), h, tree); err != nil {
		return err
	}

	return m.Attach(context.Background(), h, tree)
}

func TestCharacter(t *testing.T) {
	h := newFakeHost(nil)
	require.NoError(t, attach(t, h, tag("char", nil, "<p>a & b</p>")))

	out, err := h.renderAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<p>a & b</p>", out, "literal text is never escaped")
}

func TestVariable(t *testing.T) {
	data := map[string]any{
		"user": map[string]any{
			"name":  "Ada",
			"login": "ada",
			"bio":   "<b>hi</b>",
			"age":   36,
			"tags":  []any{"x", "y"},
		},
		"empty": "",
	}

	tests := []struct {
		name string
		tree *node.Tree
		want string
	}{
		{name: "simple path", tree: tag("v", args("user.name"), ""), want: "Ada"},
		{name: "escaped", tree: tag("var", args("user.bio"), ""), want: "&lt;b&gt;hi&lt;/b&gt;"},
		{name: "raw", tree: tag("_v", args("user.bio"), ""), want: "<b>hi</b>"},
		{name: "number", tree: tag("v", args("user.age"), ""), want: "36"},
		{name: "slice as json", tree: tag("v", args("user.tags"), ""), want: `[&#34;x&#34;,&#34;y&#34;]`},
		{name: "fallback", tree: tag("v", args("user.nick .. user.login"), ""), want: "ada"},
		{name: "empty value falls through", tree: tag("v", args("empty..user.name"), ""), want: "Ada"},
		{name: "default", tree: tag("v", args("user.nick", "anon"), ""), want: "anon"},
		{name: "missing without default", tree: tag("v", args("nope"), ""), want: ""},
		{name: "content precedes escaped value", tree: tag("v", args("user.name"), "by "), want: "by Ada"},
		{name: "raw value precedes content", tree: tag("_v", args("user.name"), "!"), want: "Ada!"},
		{name: "case insensitive tag", tree: tag("VAR", args("user.name"), ""), want: "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHost(data)
			require.NoError(t, attach(t, h, tt.tree))

			out, err := h.renderAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVariableArgumentCount(t *testing.T) {
	h := newFakeHost(nil)

	err := attach(t, h, tag("v", nil, ""))
	assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))

	err = attach(t, h, tag("v", args("a", "b", "c"), ""))
	assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
}

func TestBlock(t *testing.T) {
	t.Run("attach records content then children", func(t *testing.T) {
		h := newFakeHost(map[string]any{"name": "Ada"})
		tree := tag("b", args("greet"), "Hi ",
			tag("v", args("name"), ""),
			tag("char", nil, "!"),
		)
		require.NoError(t, attach(t, h, tree))

		units, ok := h.content.Block("greet")
		require.True(t, ok)
		require.Len(t, units, 3)
		assert.Equal(t, "char", units[0].Mode)
		assert.Equal(t, "Hi ", units[0].Text)
		assert.Equal(t, "v", units[1].Mode)
		assert.Empty(t, h.content.Units, "a block emits no units of its own")

		out, err := h.RenderBlock(context.Background(), "greet")
		require.NoError(t, err)
		assert.Equal(t, "Hi Ada!", out)
	})

	t.Run("units keep their tag lines", func(t *testing.T) {
		h := newFakeHost(nil)
		v := tag("v", args("name"), "")
		v.OpenLine = 3
		tree := tag("b", args("greet"), "Hi\n\n", v)
		require.NoError(t, attach(t, h, tree))

		units, ok := h.content.Block("greet")
		require.True(t, ok)
		require.Len(t, units, 2)
		assert.Equal(t, 1, units[0].Line)
		assert.Equal(t, 3, units[1].Line)
	})

	t.Run("redefinition replaces", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("x"), "one")))
		require.NoError(t, attach(t, h, tag("block", args("x"), "two")))

		out, err := h.RenderBlock(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, "two", out)
	})

	t.Run("nesting is rejected at any depth", func(t *testing.T) {
		h := newFakeHost(nil)
		tree := tag("b", args("outer"), "",
			tag("v", args("x"), "",
				tag("block", args("inner"), "")),
		)
		err := attach(t, h, tree)
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindModeValidation))
		assert.False(t, h.content.IsBlock("outer"))
	})

	t.Run("children are validated", func(t *testing.T) {
		h := newFakeHost(nil)
		err := attach(t, h, tag("b", args("x"), "", tag("v", nil, "")))
		assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
	})

	t.Run("unknown child mode", func(t *testing.T) {
		h := newFakeHost(nil)
		err := attach(t, h, tag("b", args("x"), "", tag("nope", nil, "")))
		assert.True(t, errors.IsKind(err, errors.KindRange))
	})
}

func TestUse(t *testing.T) {
	data := map[string]any{"html": "<i>"}

	tests := []struct {
		tag         string
		want        string
		wantRenders int
	}{
		{tag: "use", want: "&lt;i&gt;&lt;i&gt;", wantRenders: 1},
		{tag: "_use", want: "<i><i>", wantRenders: 1},
		{tag: "usec", want: "&lt;i&gt;&lt;i&gt;", wantRenders: 2},
		{tag: "_usec", want: "<i><i>", wantRenders: 2},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			h := newFakeHost(data)
			require.NoError(t, attach(t, h, tag("b", args("frag"), "", tag("_v", args("html"), ""))))
			require.NoError(t, attach(t, h, tag(tt.tag, args("frag"), "")))
			require.NoError(t, attach(t, h, tag(tt.tag, args("frag"), "")))

			out, err := h.renderAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.wantRenders, h.renders["frag"])
		})
	}
}

func TestUseCacheSurvivesStorageRoundTrip(t *testing.T) {
	h := newFakeHost(nil)
	require.NoError(t, attach(t, h, tag("b", args("frag"), "fresh")))
	require.NoError(t, attach(t, h, tag("use", args("frag"), "")))

	data, err := h.storage.MarshalJSON()
	require.NoError(t, err)
	restored := &Storage{}
	require.NoError(t, restored.UnmarshalJSON(data))
	restored.StringMap("use")["frag"] = "cached"
	h.storage = restored

	out, err := h.renderAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", out)
	assert.Zero(t, h.renders["frag"])
}

func TestUseErrors(t *testing.T) {
	h := newFakeHost(nil)
	require.NoError(t, attach(t, h, tag("b", args("header"), "H")))

	err := attach(t, h, tag("use", args("hedaer"), ""))
	require.Error(t, err)
	te, ok := errors.AsTemplateError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnknownBlock, te.Code)
	assert.Contains(t, te.Suggestions, "header")

	err = attach(t, h, tag("use", args("header"), "", tag("b", args("x"), "")))
	assert.True(t, errors.IsKind(err, errors.KindModeValidation))

	err = attach(t, h, tag("use", args("header", "extra"), ""))
	assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
}

func TestFunction(t *testing.T) {
	ctx := context.Background()

	t.Run("literal arguments", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("greet"), "Hello ", tag("arg", args("1"), ""), tag("char", nil, "!"))))
		require.NoError(t, attach(t, h, tag("func", args("greet", "World"), "")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Hello World!", out)
	})

	t.Run("block arguments render", func(t *testing.T) {
		h := newFakeHost(map[string]any{"who": "<Ada>"})
		require.NoError(t, attach(t, h, tag("b", args("name"), "", tag("v", args("who"), ""))))
		require.NoError(t, attach(t, h, tag("b", args("pair"), "", tag("arg", args("2"), ""), tag("char", nil, "/"), tag("arg", args("1"), ""))))
		require.NoError(t, attach(t, h, tag("function", args("pair", "name", "x"), "")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x/&lt;Ada&gt;", out)
	})

	t.Run("unbound placeholder is empty", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("f"), "[", tag("arg", args("3"), ""), tag("char", nil, "]"))))
		require.NoError(t, attach(t, h, tag("proc", args("f", "a"), "")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})

	t.Run("signature is stored", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("f"), "")))
		require.NoError(t, attach(t, h, tag("func", args("f", "a", "b"), "")))

		assert.Equal(t, map[string]string{"1": "a", "2": "b"}, h.storage.NestedStringMap("func")["f"])
	})

	t.Run("frames are popped", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("f"), "", tag("arg", args("1"), ""))))
		require.NoError(t, attach(t, h, tag("func", args("f", "a"), "")))

		_, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, h.frames.Depth())
	})

	t.Run("unknown target", func(t *testing.T) {
		h := newFakeHost(nil)
		err := attach(t, h, tag("func", args("missing", "a"), ""))
		assert.True(t, errors.HasCode(err, errors.ErrCodeUnknownBlock))
	})

	t.Run("arity", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("b", args("f"), "")))
		err := attach(t, h, tag("func", args("f"), ""))
		assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
		err = attach(t, h, tag("arg", args("1", "2"), ""))
		assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
	})

	t.Run("arg outside a function", func(t *testing.T) {
		h := newFakeHost(nil)
		require.NoError(t, attach(t, h, tag("arg", args("1"), "")))

		_, err := h.renderAll(ctx)
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeArgOutsideFunc))
		assert.Contains(t, err.Error(), "[[arg(`1`)]]")
	})
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	h := newFakeHost(nil)

	partial := content.New()
	partial.AddContent(0, "char", "ignored", nil)
	partial.DefineBlock("header", []content.Unit{{Mode: "char", Text: "H"}})
	partial.DefineBlock("footer", []content.Unit{{Mode: "char", Text: "F"}})
	h.templates["partials"] = partial

	require.NoError(t, attach(t, h, tag("b", args("header"), "local")))
	require.NoError(t, attach(t, h, tag("import", args("partials"), "")))

	assert.Empty(t, h.content.Units, "imported units are discarded")
	assert.Equal(t, []string{"footer", "header"}, h.content.BlockNames())
	out, err := h.RenderBlock(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, "H", out, "imported blocks override")

	err = attach(t, h, tag("import", args("missing"), ""))
	assert.True(t, errors.HasCode(err, errors.ErrCodeTemplateNotFound))

	err = attach(t, h, tag("import", args("partials"), "", tag("v", args("x"), "")))
	assert.True(t, errors.IsKind(err, errors.KindModeValidation))
}

func TestInherit(t *testing.T) {
	ctx := context.Background()

	base := content.New()
	base.AddContent(0, "char", "<title>", nil)
	base.AddContent(0, "use", "", args("title"))
	base.AddContent(0, "char", "</title>", nil)
	base.DefineBlock("title", []content.Unit{{Mode: "char", Text: "Default"}})

	t.Run("child blocks override parent", func(t *testing.T) {
		h := newFakeHost(nil)
		h.templates["base"] = base
		require.NoError(t, attach(t, h, tag("inherit", args("base"), "")))
		require.NoError(t, attach(t, h, tag("b", args("title"), "Home")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "<title>Home</title>", out)
	})

	t.Run("parents accumulate in order", func(t *testing.T) {
		h := newFakeHost(nil)
		extra := content.New()
		extra.AddContent(0, "char", "<footer/>", nil)
		h.templates["base"] = base
		h.templates["extra"] = extra
		require.NoError(t, attach(t, h, tag("inherit", args("base", "extra"), "")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "<title>Default</title><footer/>", out)
	})

	t.Run("must open on the first line", func(t *testing.T) {
		h := newFakeHost(nil)
		h.templates["base"] = base
		tree := tag("inherit", args("base"), "")
		tree.OpenLine = 2
		err := attach(t, h, tree)
		assert.True(t, errors.IsKind(err, errors.KindModeValidation))
	})

	t.Run("must come first", func(t *testing.T) {
		h := newFakeHost(nil)
		h.templates["base"] = base
		require.NoError(t, attach(t, h, tag("char", nil, "x")))
		err := attach(t, h, tag("inherit", args("base"), ""))
		assert.True(t, errors.IsKind(err, errors.KindModeValidation))
	})

	t.Run("leading whitespace is not content", func(t *testing.T) {
		h := newFakeHost(nil)
		h.templates["base"] = base
		require.NoError(t, attach(t, h, tag("char", nil, " \t")))
		require.NoError(t, attach(t, h, tag("inherit", args("base"), "")))

		out, err := h.renderAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, "<title>Default</title>", out)
	})

	t.Run("needs a parent", func(t *testing.T) {
		h := newFakeHost(nil)
		err := attach(t, h, tag("inherit", nil, ""))
		assert.True(t, errors.HasCode(err, errors.ErrCodeArgumentCount))
	})
}

func TestFuncAdapter(t *testing.T) {
	h := newFakeHost(nil)
	upper := Func{
		RenderFunc: func(_ context.Context, _ Host, u content.Unit) (string, error) {
			return "[" + u.Args.First() + "]", nil
		},
	}
	require.NoError(t, h.registry.Register("shout", upper, true))
	require.NoError(t, attach(t, h, tag("SHOUT", args("hey"), "")))

	require.Len(t, h.content.Units, 1)
	assert.Equal(t, "shout", h.content.Units[0].Mode)

	out, err := h.renderAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[hey]", out)
}
