package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/prolink/internal/logging"
)

// ShutdownTimeout bounds how long Start waits for in-flight requests
const ShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host string
	Port int // Zero picks an ephemeral port
}

// Addr returns the host:port to listen on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server serves one handler over plain HTTP
type Server struct {
	config  *Config
	httpSrv *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New creates a new Server instance
func New(config *Config, handler http.Handler) *Server {
	s := &Server{
		config: config,
		ready:  make(chan struct{}),
	}
	s.httpSrv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// RegisterOnShutdown adds a function to call when shutdown begins
func (s *Server) RegisterOnShutdown(f func()) {
	s.httpSrv.RegisterOnShutdown(f)
}

// Start listens and serves until ctx is cancelled or the listener fails.
// Cancellation is a clean stop and returns nil.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	logging.Info("HTTP server listening",
		zap.String("addr", listener.Addr().String()),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpSrv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping HTTP server...")
		return s.Shutdown()
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	}
}

// Addr returns the bound address once Start is listening, or nil before
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed once the listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		return s.httpSrv.Close()
	}

	logging.Info("HTTP server stopped")
	return nil
}
