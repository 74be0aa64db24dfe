// package server contains routing, middleware and handlers for the development task backend
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/metrics"
	"github.com/desertthunder/studyx/internal/shared"
	prom "github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which route patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// ServerOpts configures a [Server].
type ServerOpts struct {
	Addr         string
	Token        string // Bearer token required on task and progress routes; empty disables auth
	TaskPath     string
	ProgressPath string
	Logger       *log.Logger
	Registry     *prom.Registry // Served on /metrics when set
	Recorder     *metrics.Recorder
}

// Server serves the task and progress endpoints from a [Repository].
type Server struct {
	addr   string
	router *BasicRouter
	logger *log.Logger
}

// NewServer wires the task routes, middleware and the metrics endpoint.
func NewServer(repo Repository, opts ServerOpts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(opts.Logger, "component", "server")

	router := NewBasicRouter()
	router.Use(Logging(logger), Instrument(opts.Recorder))

	if opts.Registry != nil {
		router.Handle(http.MethodGet, "/metrics", metrics.HTTPHandler(opts.Registry))
	}

	router.Use(BearerAuth(opts.Token))
	router.Handler(NewTaskHandler(repo, TaskHandlerOpts{
		TaskPath:     opts.TaskPath,
		ProgressPath: opts.ProgressPath,
		Logger:       logger,
	}))

	return &Server{addr: opts.Addr, router: router, logger: logger}
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
