// Package server exposes the application over HTTP for the web client.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/azubihub/internal/app"
	"github.com/josephgoksu/azubihub/internal/i18n"
	"github.com/josephgoksu/azubihub/internal/storage"
)

// Config configures the HTTP server.
type Config struct {
	Addr        string
	JWTSecret   string   // Empty runs in local mode as LocalUser
	CORSOrigins []string // Allowed browser origins
	LocalUser   storage.Identity
	Lang        i18n.Lang // Used when the client sends no Accept-Language
	Version     string
}

// Server serves the /api routes.
type Server struct {
	cfg    Config
	app    *app.Service
	logger *slog.Logger
	now    func() time.Time
	server *http.Server
}

// New builds the server around svc.
func New(cfg Config, svc *app.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Lang == "" {
		cfg.Lang = i18n.Default
	}
	s := &Server{
		cfg:    cfg,
		app:    svc,
		logger: logger,
		now:    time.Now,
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// LocalMode reports whether requests run as the configured local user.
func (s *Server) LocalMode() bool { return s.cfg.JWTSecret == "" }

// Start serves in the background. Listen failures are sent to errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.logger.Info("server listening", "addr", s.cfg.Addr, "local_mode", s.LocalMode())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
