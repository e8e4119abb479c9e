package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conneroisu/sigil/internal/cache"
	"github.com/conneroisu/sigil/internal/config"
	"github.com/conneroisu/sigil/internal/datasource"
	"github.com/conneroisu/sigil/internal/loader"
	"github.com/conneroisu/sigil/internal/logging"
	"github.com/conneroisu/sigil/internal/view"
)

// engine holds what every session of one command invocation shares.
type engine struct {
	cfg    *config.Config
	loader *loader.FileLoader
	cache  cache.Cache
	data   map[string]any
	logger logging.Logger
}

// newEngine loads the configuration and builds the loader, cache, data
// root and logger it describes.
func newEngine(errOut io.Writer) (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return nil, err
	}

	fl, err := loader.NewFileLoader(cfg.Templates.Dir, cfg.Templates.Extension, cfg.Templates.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	c, err := newCache(cfg)
	if err != nil {
		return nil, err
	}

	data, err := loadData(cfg.Data)
	if err != nil {
		return nil, err
	}

	return &engine{
		cfg:    cfg,
		loader: fl,
		cache:  c,
		data:   data,
		logger: logger,
	}, nil
}

func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    strings.ToLower(cfg.Log.Format),
		Output:    out,
		Component: "cli",
	}), nil
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.Nop{}, nil
	case config.BackendFile:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return cache.NewMemoryCache(cfg.Cache.MaxSize, cfg.Cache.TTL), nil
	}
}

// loadData reads the data file and merges the inline JSON over it.
func loadData(cfg config.DataConfig) (map[string]any, error) {
	data := map[string]any{}

	if cfg.File != "" {
		fileData, err := datasource.LoadFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load data file: %w", err)
		}
		data = datasource.Merge(data, fileData)
	}

	if cfg.Inline != "" {
		inline := cfg.Inline
		if strings.HasPrefix(inline, "@") {
			raw, err := os.ReadFile(strings.TrimPrefix(inline, "@"))
			if err != nil {
				return nil, fmt.Errorf("failed to read inline data: %w", err)
			}
			inline = string(raw)
		}

		var inlineData map[string]any
		if err := json.Unmarshal([]byte(inline), &inlineData); err != nil {
			return nil, fmt.Errorf("invalid JSON in inline data: %w", err)
		}
		data = datasource.Merge(data, inlineData)
	}

	return data, nil
}

// session creates a session writing to out with its own copy of the data
// root.
func (e *engine) session(out io.Writer) *view.Session {
	return view.New(view.Config{
		Loader:      e.loader,
		Cache:       e.cache,
		CachePrefix: e.cfg.Cache.Prefix,
		Data:        datasource.Copy(e.data),
		Output:      out,
		Logger:      e.logger,
	})
}

func (e *engine) renderMode() (view.RenderMode, error) {
	return view.ParseRenderMode(e.cfg.Render.Mode)
}
