// Package httpserver owns the HTTP listener: route registration, middleware,
// and graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/server/middleware"
)

// Handlers groups the endpoint implementations the server routes to.
type Handlers struct {
	Forward http.Handler // POST /webhooks/notion
	Status  http.Handler // GET /webhooks/notion
	Reverse http.Handler // POST /webhooks/todoist
	Health  http.Handler // GET /healthz
	Metrics http.Handler // GET /metrics, optional
}

// Server wraps the single HTTP listener.
type Server struct {
	addr   string
	srv    *http.Server
	log    *slog.Logger
	doneCh chan struct{}
}

// New builds the server with all routes and middleware applied.
func New(addr string, h Handlers, logger *slog.Logger, adapter *ferrors.HTTPErrorAdapter) *Server {
	mux := http.NewServeMux()
	mux.Handle("POST /webhooks/notion", h.Forward)
	mux.Handle("GET /webhooks/notion", h.Status)
	mux.Handle("POST /webhooks/todoist", h.Reverse)
	mux.Handle("GET /healthz", h.Health)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	wrapped := middleware.Chain(logger, adapter)(mux)
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           wrapped,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log:    logger,
		doneCh: make(chan struct{}),
	}
}

// Start binds the listener and serves in the background. Binding errors are
// returned synchronously so startup fails fast.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "bind http listener").
			WithContext("addr", s.addr).Build()
	}

	s.log.Info("HTTP server started", "addr", s.addr)
	go func() {
		defer close(s.doneCh)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped unexpectedly", logfields.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "http server shutdown").Build()
	}
	select {
	case <-s.doneCh:
	case <-ctx.Done():
	}
	return nil
}
