package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/nfs4probe/internal/logger"
)

// DefaultListen is the metrics listen address used when none is configured.
const DefaultListen = ":9090"

// Server exposes the global registry over HTTP at /metrics.
type Server struct {
	server       *http.Server
	listen       string
	ready        chan struct{}
	addr         net.Addr
	shutdownOnce sync.Once
}

// NewServer creates a stopped metrics server for the given listen address.
// An empty address means DefaultListen.
func NewServer(listen string) *Server {
	if listen == "" {
		listen = DefaultListen
	}

	mux := http.NewServeMux()
	if reg := GetRegistry(); reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "Metrics collection is disabled\n")
		})
	}

	return &Server{
		server: &http.Server{
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		listen: listen,
		ready:  make(chan struct{}),
	}
}

// Start listens and serves until ctx is cancelled, then shuts down gracefully.
//
// Returns nil on graceful shutdown, or an error if the listener cannot be
// opened or serving fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("metrics server listen on %s: %w", s.listen, err)
	}
	s.addr = ln.Addr()
	close(s.ready)

	logger.Info("Metrics server listening", "addr", s.addr.String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// ctx is already done; shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown: %w", err)
			logger.Error("Metrics server shutdown error", "error", err)
			return
		}
		logger.Debug("Metrics server stopped")
	})
	return shutdownErr
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address; valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}
