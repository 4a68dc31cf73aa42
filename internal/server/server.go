// Package server implements the path suggestion and document upload
// services.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonIrizarry/docpicker/internal/config"
	"github.com/BrandonIrizarry/docpicker/internal/pathsvc"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second

	// multipartMemory is how much of an upload is held in memory
	// before spilling to a temporary file.
	multipartMemory = 32 << 20
)

type Server struct {
	cfg      config.ServerConfig
	inputDir string
	lister   pathsvc.Lister
	log      zerolog.Logger
	handler  http.Handler
}

// New prepares a server, creating the input directory if needed.
func New(cfg config.ServerConfig, logger zerolog.Logger) (*Server, error) {
	root, err := cfg.RootPath()
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	inputDir, err := cfg.InputPath()
	if err != nil {
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		inputDir: inputDir,
		lister:   pathsvc.Lister{Root: root, Strict: cfg.StrictPaths},
		log:      logger,
	}
	s.handler = buildRouter(s)

	logger.Info().Str("root", root).Str("input", inputDir).Bool("strict", cfg.StrictPaths).Msg("server ready")
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) InputDir() string {
	return s.inputDir
}

// ListenAndServe serves on the configured address until ctx is done,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
