// Package loader resolves template names to template source.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/sigil/internal/errors"
)

// NamespaceSeparator joins a template directory's base name and the
// template's relative name.
const NamespaceSeparator = "::"

// DefaultExtension is the template file extension used when none is set.
const DefaultExtension = "html"

// Loader resolves a template name to its source text.
type Loader interface {
	Load(name string) (string, error)
	Exists(name string) bool
}

// ArrayLoader serves templates from memory.
type ArrayLoader struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewArrayLoader creates a loader over a copy of templates.
func NewArrayLoader(templates map[string]string) *ArrayLoader {
	l := &ArrayLoader{templates: make(map[string]string, len(templates))}
	for k, v := range templates {
		l.templates[k] = v
	}

	return l
}

// Load returns the named template.
func (l *ArrayLoader) Load(name string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src, ok := l.templates[name]
	if !ok {
		return "", errors.ErrTemplateNotFound(name).WithSuggestions(errors.Suggest(name, l.namesLocked())...)
	}

	return src, nil
}

// Exists reports whether name is known.
func (l *ArrayLoader) Exists(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.templates[name]

	return ok
}

// Set adds or replaces a template.
func (l *ArrayLoader) Set(name, src string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[name] = src
}

// Names returns the template names in sorted order.
func (l *ArrayLoader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.namesLocked()
}

func (l *ArrayLoader) namesLocked() []string {
	names := make([]string, 0, len(l.templates))
	for k := range l.templates {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// FileLoader serves templates found under a directory. Each file with the
// configured extension is registered twice: under its slash separated path
// relative to the directory without the extension, and under the same name
// prefixed with the directory's base name and NamespaceSeparator.
type FileLoader struct {
	mu        sync.RWMutex
	dir       string
	ext       string
	exclude   []string
	templates map[string]string
}

// NewFileLoader scans dir for templates. Paths starting with any of the
// exclude prefixes, relative to dir, are skipped.
func NewFileLoader(dir, ext string, exclude []string) (*FileLoader, error) {
	if ext == "" {
		ext = DefaultExtension
	}
	l := &FileLoader{
		dir:     filepath.Clean(dir),
		ext:     strings.TrimPrefix(ext, "."),
		exclude: exclude,
	}
	if err := l.Refresh(); err != nil {
		return nil, err
	}

	return l, nil
}

// Dir returns the scanned directory.
func (l *FileLoader) Dir() string {
	return l.dir
}

// Extension returns the template extension without the leading dot.
func (l *FileLoader) Extension() string {
	return l.ext
}

// Refresh rescans the directory.
func (l *FileLoader) Refresh() error {
	info, err := os.Stat(l.dir)
	if err != nil || !info.IsDir() {
		return errors.NewLoaderError(errors.ErrCodeTemplateRead,
			fmt.Sprintf("`%s` is not a valid directory", l.dir), err)
	}

	namespace := filepath.Base(l.dir) + NamespaceSeparator
	suffix := "." + l.ext
	templates := make(map[string]string)

	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if l.excluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(rel, suffix) {
			return nil
		}

		name := strings.TrimSuffix(rel, suffix)
		templates[name] = path
		templates[namespace+name] = path

		return nil
	})
	if err != nil {
		return errors.NewLoaderError(errors.ErrCodeTemplateRead,
			fmt.Sprintf("failed to scan `%s`", l.dir), err)
	}

	l.mu.Lock()
	l.templates = templates
	l.mu.Unlock()

	return nil
}

func (l *FileLoader) excluded(rel string) bool {
	if rel == "." {
		return false
	}
	for _, prefix := range l.exclude {
		prefix = strings.Trim(filepath.ToSlash(prefix), "/")
		if prefix != "" && (rel == prefix || strings.HasPrefix(rel, prefix+"/")) {
			return true
		}
	}

	return false
}

// Load reads the named template from disk.
func (l *FileLoader) Load(name string) (string, error) {
	l.mu.RLock()
	path, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return "", errors.ErrTemplateNotFound(name).WithSuggestions(errors.Suggest(name, l.Names())...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewLoaderError(errors.ErrCodeTemplateRead,
			fmt.Sprintf("failed to read `%s`", path), err)
	}

	return string(data), nil
}

// Exists reports whether name is known.
func (l *FileLoader) Exists(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.templates[name]

	return ok
}

// Names returns every registered name in sorted order.
func (l *FileLoader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for k := range l.templates {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

// NamesFor returns the names registered for a file path.
func (l *FileLoader) NamesFor(path string) []string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var names []string
	for name, p := range l.templates {
		if candidate, err := filepath.Abs(p); err == nil && candidate == abs {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}
