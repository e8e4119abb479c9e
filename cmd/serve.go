package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sigil/internal/server"
	"github.com/conneroisu/sigil/internal/view"
	"github.com/conneroisu/sigil/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve rendered templates with live reload",
	Long: `Start a preview server that renders templates on request.

  GET /render/NAME   renders NAME; query parameters are available as query.*
  GET /templates     lists template names
  GET /ws            websocket sending {"type":"reload","template":NAME}

Examples:
  sigil serve                   # Serve on localhost:8080
  sigil serve -p 3000           # Custom port
  sigil serve -d data.yaml      # Data root shared by every request`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	AddStandardFlags(serveCmd, "server", "data")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(e.cfg, func(out io.Writer) *view.Session {
		return e.session(out)
	}, e.loader.Names, e.logger)

	reloader := &watcher.Reloader{
		Loader:   e.loader,
		Cache:    e.cache,
		Logger:   e.logger,
		OnReload: srv.NotifyReload,
	}
	fw, err := watcher.Watch(ctx, reloader, e.cfg.Templates.Exclude, 300*time.Millisecond)
	if err != nil {
		e.logger.Warn(ctx, err, "Live reload disabled")
	} else {
		defer fw.Stop()
	}

	return srv.Start(ctx)
}
