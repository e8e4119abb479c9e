// Package testutils holds helpers shared by tests that need templates on
// disk.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sigil/internal/config"
)

// StandardTemplates covers plain text, variables, function calls, block
// definitions and an unbalanced tag.
var StandardTemplates = map[string]string{
	"page":   "<h1>[[v('title', 'Untitled')]]</h1>",
	"greet":  "[[b('hello')Hello [[arg('1')]]!]][[func('hello', 'World')]]",
	"blocks": "[[b('header')H]][[b('footer')F]]body",
	"broken": "[[b('x')open",
}

// CreateTempProject creates a project with a templates directory and a
// cache directory and returns its root.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	for _, dir := range []string{"templates", filepath.Join(".sigil", "cache")} {
		err := os.MkdirAll(filepath.Join(tempDir, dir), 0o755)
		require.NoError(t, err)
	}

	return tempDir
}

// CreateTestTemplate writes name with the html extension under dir,
// creating parent directories for nested names.
func CreateTestTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name)+".html")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// WriteTemplates writes every template of templates under dir.
func WriteTemplates(t *testing.T, dir string, templates map[string]string) {
	t.Helper()
	for name, content := range templates {
		CreateTestTemplate(t, dir, name, content)
	}
}

// CreateTestConfig returns a configuration rooted at projectDir.
func CreateTestConfig(projectDir string) *config.Config {
	cfg := config.Default()
	cfg.Templates.Dir = filepath.Join(projectDir, "templates")
	cfg.Cache.Backend = config.BackendNone

	return cfg
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
