package mode

import (
	"context"
	"strings"

	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
)

// fakeHost is a minimal Host backed by prepared content models instead of
// a tokenizer.
type fakeHost struct {
	content   *content.Model
	storage   *Storage
	frames    *Frames
	registry  *Registry
	data      map[string]any
	templates map[string]*content.Model
	renders   map[string]int
}

func newFakeHost(data map[string]any) *fakeHost {
	return &fakeHost{
		content:   content.New(),
		storage:   NewStorage(StorageModes...),
		frames:    &Frames{},
		registry:  NewRegistry(),
		data:      data,
		templates: map[string]*content.Model{},
		renders:   map[string]int{},
	}
}

func (h *fakeHost) Content() *content.Model { return h.content }
func (h *fakeHost) Storage() *Storage       { return h.storage }
func (h *fakeHost) Frames() *Frames         { return h.frames }
func (h *fakeHost) Registry() *Registry     { return h.registry }

func (h *fakeHost) Lookup(path string) any {
	var cur any = h.data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}

	return cur
}

func (h *fakeHost) RenderBlock(ctx context.Context, name string) (string, error) {
	h.renders[name]++
	units, ok := h.content.Block(name)
	if !ok {
		return "", errors.ErrUnknownBlock(name, h.content.BlockNames())
	}
	out := ""
	for _, u := range units {
		s, err := h.RenderUnit(ctx, u)
		if err != nil {
			return "", err
		}
		out += s
	}

	return out, nil
}

func (h *fakeHost) RenderUnit(ctx context.Context, u content.Unit) (string, error) {
	m, ok := h.registry.Lookup(u.Mode)
	if !ok {
		return "", errors.ErrUnknownMode(u.Mode, h.registry.Names())
	}
	r, ok := m.(Renderer)
	if !ok {
		return "", nil
	}

	return r.Render(ctx, h, u)
}

func (h *fakeHost) renderAll(ctx context.Context) (string, error) {
	out := ""
	for _, u := range h.content.Units {
		s, err := h.RenderUnit(ctx, u)
		if err != nil {
			return "", err
		}
		out += s
	}

	return out, nil
}

func (h *fakeHost) Isolate() Host {
	child := newFakeHost(h.data)
	child.registry = h.registry.Clone()
	child.storage = h.storage.Clone()
	child.templates = h.templates

	return child
}

func (h *fakeHost) Tokenize(_ context.Context, name string) error {
	tmpl, ok := h.templates[name]
	if !ok {
		return errors.ErrTemplateNotFound(name)
	}
	h.content.ClearUnits()
	h.content.AddUnits(tmpl.Clone().Units)
	h.content.MergeBlocks(tmpl.Blocks)

	return nil
}

func (h *fakeHost) Replace(c *content.Model, s *Storage) {
	h.content = c
	h.storage = s
}
