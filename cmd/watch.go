package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sigil/internal/view"
	"github.com/conneroisu/sigil/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch NAME",
	Aliases: []string{"w"},
	Short:   "Re-render a template whenever templates change",
	Long: `Render a template, then render it again every time a file in the
template directory changes.

Examples:
  sigil watch page                     # Print on every change
  sigil watch page --out page.html     # Rewrite a file on every change
  sigil watch page -d data.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags    *StandardFlags
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddStandardFlags(watchCmd, "data", "render")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Delay grouping rapid changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	name := args[0]
	renderOnce := func(ctx context.Context) {
		if err := watchRender(ctx, e, cmd.OutOrStdout(), name); err != nil {
			e.logger.Error(ctx, err, "Render failed", "template", name)
		}
	}

	reloader := &watcher.Reloader{
		Loader: e.loader,
		Cache:  e.cache,
		Logger: e.logger,
		OnReload: func(ctx context.Context, names []string) {
			renderOnce(ctx)
		},
	}

	fw, err := watcher.Watch(ctx, reloader, e.cfg.Templates.Exclude, watchDebounce)
	if err != nil {
		return err
	}
	defer fw.Stop()

	renderOnce(ctx)
	e.logger.Info(ctx, "Watching templates", "dir", e.loader.Dir(), "template", name)

	<-ctx.Done()

	return nil
}

func watchRender(ctx context.Context, e *engine, stdout io.Writer, name string) error {
	out := stdout
	if watchFlags.Out != "" {
		f, err := os.Create(watchFlags.Out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	mode, err := e.renderMode()
	if err != nil {
		return err
	}

	result, err := e.session(out).Render(ctx, name, mode)
	if err != nil {
		return err
	}
	if mode == view.ConcatenateOnly {
		_, err = io.WriteString(out, result)
	}

	return err
}
