package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/testutils"
)

// resetFlags restores every flag of cmd and its children to its default
// so that executions within one test binary do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	resetFlags(rootCmd)
	t.Cleanup(viper.Reset)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

func templateDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(testutils.CreateTempProject(t), "templates")
	testutils.WriteTemplates(t, dir, testutils.StandardTemplates)

	return dir
}

func TestRenderCommand(t *testing.T) {
	dir := templateDir(t)
	dataFile := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(dataFile, []byte("title: From YAML\n"), 0o644))

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "default value",
			args: []string{"render", "page", "-t", dir, "--cache", "none"},
			want: "<h1>Untitled</h1>",
		},
		{
			name: "inline data",
			args: []string{"render", "page", "-t", dir, "--inline", `{"title":"Inline"}`},
			want: "<h1>Inline</h1>",
		},
		{
			name: "data file",
			args: []string{"render", "page", "-t", dir, "-d", dataFile},
			want: "<h1>From YAML</h1>",
		},
		{
			name: "inline overrides data file",
			args: []string{"render", "page", "-t", dir, "-d", dataFile, "--inline", `{"title":"Inline"}`},
			want: "<h1>Inline</h1>",
		},
		{
			name: "namespaced name",
			args: []string{"render", "templates::greet", "-t", dir},
			want: "Hello World!",
		},
		{
			name: "output mode",
			args: []string{"render", "greet", "-t", dir, "-m", "output"},
			want: "Hello World!",
		},
		{
			name: "tokenize prints nothing",
			args: []string{"render", "page", "-t", dir, "-m", "tokenize"},
			want: "",
		},
		{
			name:    "unknown template",
			args:    []string{"render", "missing", "-t", dir},
			wantErr: true,
		},
		{
			name:    "unbalanced template",
			args:    []string{"render", "broken", "-t", dir},
			wantErr: true,
		},
		{
			name:    "invalid render mode",
			args:    []string{"render", "page", "-t", dir, "-m", "fast"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := templateDir(t)

	_, err := execute(t, "render", "missing", "-t", dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTemplateNotFound))

	_, err = execute(t, "render", "broken", "-t", dir)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnexpectedEOF))
}

func TestRenderCommandOutFile(t *testing.T) {
	dir := templateDir(t)
	target := filepath.Join(t.TempDir(), "page.out.html")

	out, err := execute(t, "render", "page", "-t", dir, "--out", target, "--inline", `{"title":"File"}`)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<h1>File</h1>", string(written))
}

func TestTokensCommand(t *testing.T) {
	dir := templateDir(t)

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "tokens", "page", "-t", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "MODE")
		assert.Contains(t, out, "v")
		assert.Contains(t, out, "<h1>")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "tokens", "blocks", "-t", dir, "-o", "json")
		require.NoError(t, err)

		var model map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &model))
		assert.NotEmpty(t, model)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "tokens", "page", "-t", dir, "-o", "yaml")
		require.NoError(t, err)

		var model map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &model))
		assert.NotEmpty(t, model)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := execute(t, "tokens", "page", "-t", dir, "-o", "xml")
		require.Error(t, err)
	})
}

func TestBlocksCommand(t *testing.T) {
	dir := templateDir(t)

	out, err := execute(t, "blocks", "blocks", "-t", dir, "-o", "json")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"footer", "header"}, names)

	out, err = execute(t, "blocks", "page", "-t", dir, "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = execute(t, "blocks", "blocks", "-t", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCK")
	assert.Contains(t, out, "header")
}

func TestModesCommand(t *testing.T) {
	out, err := execute(t, "modes", "-o", "json")
	require.NoError(t, err)

	var modes []struct {
		Name    string `json:"name"`
		Builtin bool   `json:"builtin"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &modes))

	names := make(map[string]bool, len(modes))
	for _, m := range modes {
		names[m.Name] = m.Builtin
	}
	for _, want := range []string{"b", "v", "use", "func", "import", "inherit"} {
		assert.True(t, names[want], "mode %s", want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := templateDir(t)
	t.Chdir(t.TempDir())
	cacheDir := filepath.Join(".sigil", "cache")

	_, err := execute(t, "render", "page", "-t", dir, "--cache", "file")
	require.NoError(t, err)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	out, err := execute(t, "cache", "clear", "-t", dir, "--cache", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared file cache")

	entries, err = os.ReadDir(cacheDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestWatchCommand(t *testing.T) {
	dir := templateDir(t)
	target := filepath.Join(t.TempDir(), "page.out.html")

	viper.Reset()
	resetFlags(rootCmd)
	t.Cleanup(viper.Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"watch", "page", "-t", dir, "--out", target, "--debounce", "20ms", "--cache", "none"})

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	readTarget := func() string {
		b, _ := os.ReadFile(target)
		return string(b)
	}
	require.Eventually(t, func() bool {
		return readTarget() == "<h1>Untitled</h1>"
	}, 5*time.Second, 20*time.Millisecond)

	info, err := os.Stat(target)
	require.NoError(t, err)

	testutils.CreateTestTemplate(t, dir, "page", "<p>[[v('title', 'Changed')]]</p>")
	testutils.WaitForFileChange(t, target, info.ModTime(), 5*time.Second)
	require.Eventually(t, func() bool {
		return readTarget() == "<p>Changed</p>"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sigil ")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")

	_, err = execute(t, "version", "--format", "xml")
	require.Error(t, err)
}

func TestValidateFormat(t *testing.T) {
	valid := []string{"table", "json", "yaml"}

	assert.NoError(t, ValidateFormat("json", valid))
	assert.Error(t, ValidateFormat("xml", valid))
}
