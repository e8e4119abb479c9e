// Package view runs processing sessions: it tokenizes templates into a
// content model through the mode registry and renders that model back to
// text.
package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/conneroisu/sigil/internal/cache"
	"github.com/conneroisu/sigil/internal/content"
	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/loader"
	"github.com/conneroisu/sigil/internal/logging"
	"github.com/conneroisu/sigil/internal/mode"
	"github.com/conneroisu/sigil/internal/node"
	"github.com/conneroisu/sigil/internal/tokenizer"
	"github.com/conneroisu/sigil/internal/tree"
)

// Renderer replaces the built-in render step of Session.Render.
type Renderer interface {
	Render(ctx context.Context, s *Session) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, s *Session) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, s *Session) (string, error) {
	return f(ctx, s)
}

// Config holds the construction-time settings of a session.
type Config struct {
	// Loader resolves template names. Required for Render and Tokenize.
	Loader loader.Loader
	// Cache stores tokenized snapshots. Nil disables caching.
	Cache cache.Cache
	// CachePrefix is prepended to template names before they become keys.
	CachePrefix string
	// Data is the variable root.
	Data map[string]any
	// Renderer overrides the render step when set.
	Renderer Renderer
	// EOFHandler runs when a tokenization pass reaches the end of input or
	// is stopped with EndTokenization.
	EOFHandler func(s *Session)
	// Output receives ConcatenateAndOutput renders. Defaults to stdout.
	Output io.Writer
	// Logger defaults to a no-op logger.
	Logger logging.Logger
}

// Session is one template processing session. It is not safe for
// concurrent use.
type Session struct {
	loader      loader.Loader
	cache       cache.Cache
	cachePrefix string
	data        map[string]any
	renderer    Renderer
	eofHandler  func(*Session)
	out         io.Writer
	logger      logging.Logger

	registry *mode.Registry
	content  *content.Model
	storage  *mode.Storage
	frames   *mode.Frames

	machine *tokenizer.Machine
	name    string
	// ctx is the context of the tokenization pass in progress.
	ctx context.Context
	// loading is the chain of templates being tokenized, outermost first.
	loading []string
	// rendering holds the blocks with a render in progress.
	rendering map[string]bool
	// unitLine is the source line of the unit being rendered.
	unitLine int

	lastVariable Variable
}

var (
	_ mode.Host    = (*Session)(nil)
	_ tree.Emitter = (*Session)(nil)
)

// New creates a session with the builtin modes registered.
func New(cfg Config) *Session {
	s := &Session{
		loader:      cfg.Loader,
		cache:       cfg.Cache,
		cachePrefix: cfg.CachePrefix,
		data:        cfg.Data,
		renderer:    cfg.Renderer,
		eofHandler:  cfg.EOFHandler,
		out:         cfg.Output,
		logger:      cfg.Logger,
		registry:    mode.NewRegistry(),
		content:     content.New(),
		storage:     mode.NewStorage(mode.StorageModes...),
		frames:      &mode.Frames{},
	}
	if s.data == nil {
		s.data = map[string]any{}
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.WithComponent("view")
	s.init()

	return s
}

func (s *Session) init() {
	s.machine = tokenizer.New(tree.NewBuilder(s), tokenizer.WithEOFHandler(func(*tokenizer.Machine) {
		if s.eofHandler != nil {
			s.eofHandler(s)
		}
	}))
}

// Spawn creates an isolated session that shares this session's loader,
// cache and data but owns copies of the mode bindings and mode storage and
// starts with an empty content model.
func (s *Session) Spawn() *Session {
	child := &Session{
		loader:      s.loader,
		cache:       s.cache,
		cachePrefix: s.cachePrefix,
		data:        s.data,
		out:         s.out,
		logger:      s.logger,
		registry:    s.registry.Clone(),
		content:     content.New(),
		storage:     s.storage.Clone(),
		frames:      &mode.Frames{},
		loading:     append([]string(nil), s.loading...),
	}
	child.init()

	return child
}

// Isolate implements mode.Host.
func (s *Session) Isolate() mode.Host {
	return s.Spawn()
}

// Name returns the template most recently rendered or tokenized.
func (s *Session) Name() string {
	return s.name
}

// Content returns the content model.
func (s *Session) Content() *content.Model {
	return s.content
}

// Storage returns the mode storage.
func (s *Session) Storage() *mode.Storage {
	return s.storage
}

// Frames returns the function call frames.
func (s *Session) Frames() *mode.Frames {
	return s.frames
}

// Registry returns the mode bindings.
func (s *Session) Registry() *mode.Registry {
	return s.registry
}

// Data returns the variable root.
func (s *Session) Data() map[string]any {
	return s.data
}

// Replace swaps in a content model and mode storage.
func (s *Session) Replace(c *content.Model, st *mode.Storage) {
	s.content = c
	s.storage = st
}

// Line returns the line the tokenizer is on.
func (s *Session) Line() int {
	return s.machine.Line()
}

// State returns the tokenizer state.
func (s *Session) State() tokenizer.State {
	return s.machine.State()
}

// EndTokenization stops the pass in progress before the next character.
func (s *Session) EndTokenization() {
	s.machine.Stop()
}

// Tokenize loads name and tokenizes it into the session. Units of an
// earlier pass are dropped; blocks are kept. A template that imports or
// inherits itself, directly or through others, is a mode error.
func (s *Session) Tokenize(ctx context.Context, name string) error {
	if s.loader == nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "session has no template loader")
	}
	if slices.Contains(s.loading, name) {
		chain := append(slices.Clone(s.loading), name)
		return errors.NewModeError(errors.ErrCodeTemplateCycle,
			fmt.Sprintf("template `%s` includes itself: %s", name, strings.Join(chain, " -> ")))
	}
	s.loading = append(s.loading, name)
	defer func() { s.loading = s.loading[:len(s.loading)-1] }()

	src, err := s.loader.Load(name)
	if err != nil {
		return errors.Locate(err, name, 0)
	}

	s.logger.Debug(ctx, "Tokenizing template", "template", name, "bytes", len(src))

	s.name = name
	s.ctx = ctx
	defer func() { s.ctx = nil }()
	s.content.ClearUnits()
	s.frames = &mode.Frames{}

	return s.machine.Tokenize(name, src)
}

// ContextFree implements tree.Emitter.
func (s *Session) ContextFree(name string) bool {
	return s.registry.ContextFree(name)
}

// Emit implements tree.Emitter: the tree's mode validates it and then
// attaches it to the content model.
func (s *Session) Emit(root *node.Tree) error {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	m, ok := s.registry.Lookup(root.Name)
	if !ok {
		return errors.ErrUnknownMode(root.Name, s.registry.Names())
	}

	if err := m.Validate(ctx, s, root); err != nil {
		if _, isTemplateErr := errors.AsTemplateError(err); !isTemplateErr {
			err = errors.NewModeValidationError(errors.ErrCodeValidation, err.Error()).WithCause(err)
		}
		return err
	}

	return m.Attach(ctx, s, root)
}
