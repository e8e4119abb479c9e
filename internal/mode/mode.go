// Package mode defines tag behaviors and the registry that binds tag names
// to them.
//
// A Mode validates a finished tag tree and attaches its result to the
// content model of the session that tokenized it. Modes that also
// implement Renderer turn content units back into text.
package mode

import (
	"context"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/node"
)

// Mode is a named tag behavior.
type Mode interface {
	// Validate checks a closed tag tree before it is attached.
	Validate(ctx context.Context, h Host, t *node.Tree) error
	// Attach mutates the host's content model for a validated tree.
	Attach(ctx context.Context, h Host, t *node.Tree) error
}

// Renderer is implemented by modes that produce output.
type Renderer interface {
	Render(ctx context.Context, h Host, u content.Unit) (string, error)
}

// Host is the processing session seen from inside a mode.
type Host interface {
	// Content returns the session's content model.
	Content() *content.Model
	// Storage returns the session's mode storage.
	Storage() *Storage
	// Frames returns the function argument frames of the render in progress.
	Frames() *Frames
	// Registry returns the session's mode bindings.
	Registry() *Registry
	// Lookup resolves a variable path against the data root.
	Lookup(path string) any
	// RenderBlock renders a named block.
	RenderBlock(ctx context.Context, name string) (string, error)
	// RenderUnit renders a single unit through its mode.
	RenderUnit(ctx context.Context, u content.Unit) (string, error)
	// Isolate creates a session sharing configuration but no mutable state.
	Isolate() Host
	// Tokenize loads a template into this host. Units from an earlier pass
	// are dropped; blocks are kept.
	Tokenize(ctx context.Context, name string) error
	// Replace swaps in a new content model and mode storage.
	Replace(c *content.Model, s *Storage)
}

// Func adapts plain functions to Mode and Renderer.
type Func struct {
	ValidateFunc func(ctx context.Context, h Host, t *node.Tree) error
	AttachFunc   func(ctx context.Context, h Host, t *node.Tree) error
	RenderFunc   func(ctx context.Context, h Host, u content.Unit) (string, error)
}

// Validate calls ValidateFunc when set.
func (f Func) Validate(ctx context.Context, h Host, t *node.Tree) error {
	if f.ValidateFunc == nil {
		return nil
	}

	return f.ValidateFunc(ctx, h, t)
}

// Attach calls AttachFunc when set, otherwise it appends a unit carrying
// the tag's name, content, args and children.
func (f Func) Attach(ctx context.Context, h Host, t *node.Tree) error {
	if f.AttachFunc == nil {
		h.Content().Units = append(h.Content().Units, content.NewUnit(t.Name, t.Content, t.Args.Clone(), t.Children).At(t.OpenLine))
		return nil
	}

	return f.AttachFunc(ctx, h, t)
}

// Render calls RenderFunc when set.
func (f Func) Render(ctx context.Context, h Host, u content.Unit) (string, error) {
	if f.RenderFunc == nil {
		return "", nil
	}

	return f.RenderFunc(ctx, h, u)
}
