// Package server serves rendered templates over HTTP and pushes live
// reload notifications to browsers over a websocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/sigil/internal/config"
	"github.com/conneroisu/sigil/internal/logging"
	"github.com/conneroisu/sigil/internal/view"
)

// SessionFactory creates a fresh session for one request. out is the
// session's output writer.
type SessionFactory func(out io.Writer) *view.Session

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// PreviewServer renders templates on request and notifies connected
// browsers when templates change.
type PreviewServer struct {
	config      *config.Config
	sessions    SessionFactory
	templates   func() []string
	logger      logging.Logger
	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}
	pingPeriod   time.Duration

	shutdownOnce sync.Once
}

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Template  string    `json:"template,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a preview server. templates lists the known template names
// for the index route and may be nil.
func New(cfg *config.Config, sessions SessionFactory, templates func() []string, logger logging.Logger) *PreviewServer {
	if logger == nil {
		logger = logging.Nop()
	}
	if templates == nil {
		templates = func() []string { return nil }
	}

	return &PreviewServer{
		config:     cfg,
		sessions:   sessions,
		templates:  templates,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		pingPeriod: defaultPingPeriod,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /render/{name...}", s.handleRender)
	mux.HandleFunc("GET /templates", s.handleTemplates)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.addMiddleware(mux)
}

// Start runs the websocket hub and serves until ctx is cancelled.
func (s *PreviewServer) Start(ctx context.Context) error {
	go s.runWebSocketHub(ctx)

	addr := s.config.Server.Address()

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Preview server listening", "addr", "http://"+addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// NotifyReload tells every connected browser that names changed. It fits
// watcher.Reloader.OnReload.
func (s *PreviewServer) NotifyReload(ctx context.Context, names []string) {
	for _, name := range names {
		s.broadcastMessage(ctx, UpdateMessage{
			Type:      "reload",
			Template:  name,
			Timestamp: time.Now(),
		})
	}
}

func (s *PreviewServer) broadcastMessage(ctx context.Context, msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn(ctx, err, "Failed to marshal message")
		data = []byte(`{"type":"reload"}`)
	}

	select {
	case s.broadcast <- data:
	case <-s.done:
	}
}

func (s *PreviewServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

// ClientCount returns the number of connected websocket clients.
func (s *PreviewServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()

	return len(s.clients)
}

// Shutdown gracefully shuts down the server and closes every websocket.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		close(s.done)

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				shutdownErr = fmt.Errorf("failed to shutdown HTTP server: %w", err)
			}
		}
	})

	return shutdownErr
}
