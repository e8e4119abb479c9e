package watcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/conneroisu/sigil/internal/cache"
	"github.com/conneroisu/sigil/internal/loader"
	"github.com/conneroisu/sigil/internal/logging"
)

// Reloader keeps a file loader and the snapshot cache in step with the
// template directory.
type Reloader struct {
	Loader *loader.FileLoader
	Cache  cache.Cache
	Logger logging.Logger
	// OnReload receives the template names touched by a batch of changes.
	OnReload func(ctx context.Context, names []string)
}

// Handle is a ChangeHandler. Snapshots embed the blocks of imported and
// inherited templates, so every change clears the whole cache rather than
// only the changed names.
func (r *Reloader) Handle(events []ChangeEvent) error {
	ctx := context.Background()
	logger := r.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	touched := make(map[string]struct{})
	collect := func() {
		for _, ev := range events {
			for _, name := range r.Loader.NamesFor(ev.Path) {
				touched[name] = struct{}{}
			}
		}
	}

	// Deleted files are only known before the rescan, created ones after.
	collect()
	if err := r.Loader.Refresh(); err != nil {
		return fmt.Errorf("failed to rescan templates: %w", err)
	}
	collect()

	if len(touched) == 0 {
		return nil
	}

	if r.Cache != nil {
		if err := r.Cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear template cache: %w", err)
		}
	}

	names := make([]string, 0, len(touched))
	for name := range touched {
		names = append(names, name)
	}
	sort.Strings(names)

	logger.Info(ctx, "Templates changed", "templates", names)
	if r.OnReload != nil {
		r.OnReload(ctx, names)
	}

	return nil
}

// Watch creates a FileWatcher over the loader's directory, wired to r.
func Watch(ctx context.Context, r *Reloader, exclude []string, debounce time.Duration) (*FileWatcher, error) {
	fw, err := NewFileWatcher(debounce, r.Logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(ExtensionFilter(r.Loader.Extension()))
	fw.AddFilter(NoHiddenFilter)
	fw.AddFilter(ExcludeFilter(r.Loader.Dir(), exclude))
	fw.AddHandler(r.Handle)

	if err := fw.AddRecursive(r.Loader.Dir()); err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", r.Loader.Dir(), err)
	}
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}

	return fw, nil
}
