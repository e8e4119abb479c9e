package view

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/conneroisu/sigil/internal/cache"
	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/logging"
	"github.com/conneroisu/sigil/internal/mode"
)

// RenderMode selects what Render does after tokenizing.
type RenderMode int

const (
	// ConcatenateAndOutput renders and writes the result to the output.
	ConcatenateAndOutput RenderMode = iota + 1
	// ConcatenateOnly renders and returns the result.
	ConcatenateOnly
	// TokenizeOnly stops after the content model is built.
	TokenizeOnly
)

// String returns the configuration name of the mode.
func (m RenderMode) String() string {
	switch m {
	case ConcatenateAndOutput:
		return "output"
	case ConcatenateOnly:
		return "concatenate"
	case TokenizeOnly:
		return "tokenize"
	default:
		return "unknown"
	}
}

// ParseRenderMode parses a configuration name.
func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(s) {
	case "output", "":
		return ConcatenateAndOutput, nil
	case "concatenate", "concat":
		return ConcatenateOnly, nil
	case "tokenize":
		return TokenizeOnly, nil
	default:
		return 0, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown render mode %q: expected output, concatenate or tokenize", s))
	}
}

// storageKeySuffix is appended to a snapshot key for its mode storage.
const storageKeySuffix = "__modeStorage"

// CacheKey returns the cache key of a template name.
func (s *Session) CacheKey(name string) string {
	return cache.FriendlyName(s.cachePrefix, name)
}

// Render builds the content model of name, from the cache when a
// snapshot exists, and renders it according to m. A configured Renderer
// takes over the render step regardless of m.
func (s *Session) Render(ctx context.Context, name string, m RenderMode) (string, error) {
	op := logging.StartOperation(s.logger.With("template", name), "render")
	out, err := s.render(ctx, name, m)
	if err != nil {
		op.EndWithError(ctx, err)
		return "", err
	}
	op.End(ctx)

	return out, nil
}

func (s *Session) render(ctx context.Context, name string, m RenderMode) (string, error) {
	s.name = name
	if !s.restore(ctx, name) {
		if err := s.Tokenize(ctx, name); err != nil {
			return "", err
		}
		s.snapshot(ctx, name)
	}

	if s.renderer != nil {
		return s.renderer.Render(ctx, s)
	}

	switch m {
	case ConcatenateAndOutput:
		out, err := s.RenderAll(ctx, s.content.Units)
		if err != nil {
			return "", err
		}
		if _, err := io.WriteString(s.out, out); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
		return out, nil
	case ConcatenateOnly:
		return s.RenderAll(ctx, s.content.Units)
	case TokenizeOnly:
		return "", nil
	default:
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown render mode %d", m))
	}
}

// restore loads a cached snapshot of name. It reports false on any miss
// or decode failure so the caller tokenizes instead.
func (s *Session) restore(ctx context.Context, name string) bool {
	if s.cache == nil {
		return false
	}
	key := s.CacheKey(name)
	data, ok := s.cache.Get(key)
	if !ok {
		s.logger.Debug(ctx, "Cache miss", "key", key)
		return false
	}

	c := content.New()
	if err := json.Unmarshal(data, c); err != nil {
		s.logger.Warn(ctx, err, "Discarding unreadable cache entry", "key", key)
		return false
	}
	if c.Blocks == nil {
		c.Blocks = map[string][]content.Unit{}
	}

	st := mode.NewStorage(mode.StorageModes...)
	if raw, ok := s.cache.Get(key + storageKeySuffix); ok {
		if err := json.Unmarshal(raw, st); err != nil {
			s.logger.Warn(ctx, err, "Discarding unreadable cache entry", "key", key+storageKeySuffix)
			return false
		}
	}

	s.logger.Debug(ctx, "Cache hit", "key", key)
	s.Replace(c, st)

	return true
}

func (s *Session) snapshot(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	key := s.CacheKey(name)

	data, err := json.Marshal(s.content)
	if err == nil {
		err = s.cache.Add(key, data)
	}
	if err == nil {
		data, err = json.Marshal(s.storage)
	}
	if err == nil {
		err = s.cache.Add(key+storageKeySuffix, data)
	}
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to cache template", "key", key)
	}
}

// Invalidate drops the cached snapshot of name.
func (s *Session) Invalidate(name string) error {
	if s.cache == nil {
		return nil
	}
	key := s.CacheKey(name)
	if err := s.cache.Delete(key); err != nil {
		return err
	}

	return s.cache.Delete(key + storageKeySuffix)
}

// RenderAll concatenates the output of each unit. Units whose mode does
// not render are skipped.
func (s *Session) RenderAll(ctx context.Context, units []content.Unit) (string, error) {
	var b strings.Builder
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := s.RenderUnit(ctx, u)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}

	return b.String(), nil
}

// RenderBlock renders a named block. A block reached again while it is
// still rendering is a mode error.
func (s *Session) RenderBlock(ctx context.Context, name string) (string, error) {
	units, ok := s.content.Block(name)
	if !ok {
		return "", errors.Locate(errors.ErrUnknownBlock(name, s.content.BlockNames()), s.name, s.unitLine)
	}
	if s.rendering[name] {
		return "", errors.Locate(errors.NewModeError(errors.ErrCodeBlockCycle,
			fmt.Sprintf("block `%s` renders itself", name)), s.name, s.unitLine)
	}
	if s.rendering == nil {
		s.rendering = make(map[string]bool)
	}
	s.rendering[name] = true
	defer delete(s.rendering, name)

	return s.RenderAll(ctx, units)
}

// RenderUnit renders one unit through its mode. Errors are located at
// the line the unit's tag opened on.
func (s *Session) RenderUnit(ctx context.Context, u content.Unit) (string, error) {
	m, ok := s.registry.Lookup(u.Mode)
	if !ok {
		return "", errors.Locate(errors.ErrUnknownMode(u.Mode, s.registry.Names()), s.name, u.Line)
	}
	r, ok := m.(mode.Renderer)
	if !ok {
		return "", nil
	}

	prev := s.unitLine
	s.unitLine = u.Line
	defer func() { s.unitLine = prev }()

	out, err := r.Render(ctx, s, u)
	if err != nil {
		return "", errors.Locate(err, s.name, u.Line)
	}

	return out, nil
}
