// Package server runs the ingest pipeline on a schedule and exposes health,
// readiness, version and metrics endpoints around it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	log     *slog.Logger
	cfg     Config
	httpSrv *http.Server

	readyOnce sync.Once
	readyCh   chan struct{}
}

func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		log:     cfg.Logger,
		cfg:     cfg,
		readyCh: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("failed to write healthz response", "error", err)
		}
	}))
	mux.Handle("/readyz", http.HandlerFunc(s.readyzHandler))
	mux.Handle("/version", http.HandlerFunc(s.versionHandler))
	mux.Handle("/metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	return s, nil
}

// Ready reports whether at least one pipeline run has completed.
func (s *Server) Ready() bool {
	select {
	case <-s.readyCh:
		return true
	default:
		return false
	}
}

// Run starts the refresh loop and serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.startRefreshLoop(ctx)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server: http server error", "error", err)
			serveErrCh <- fmt.Errorf("failed to listen and serve: %w", err)
		}
	}()

	s.log.Info("server: http listening", "address", s.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "reason", ctx.Err(), "address", s.cfg.ListenAddr)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: http server shutdown complete")
		return nil
	case err := <-serveErrCh:
		s.log.Error("server: http server error causing shutdown", "error", err, "address", s.cfg.ListenAddr)
		return err
	}
}

func (s *Server) startRefreshLoop(ctx context.Context) {
	go func() {
		s.log.Info("server: starting refresh loop", "interval", s.cfg.RefreshInterval)

		s.safeRun(ctx)

		ticker := s.cfg.Clock.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.safeRun(ctx)
			}
		}
	}()
}

func (s *Server) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("server: pipeline run panicked", "panic", r)
		}
	}()

	report, err := s.cfg.Pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("server: pipeline run failed", "error", err)
		if report == nil {
			return
		}
	}
	s.readyOnce.Do(func() { close(s.readyCh) })
}

func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if !s.Ready() {
		s.log.Debug("readyz: no pipeline run has completed yet")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("pipeline not ready\n")); err != nil {
			s.log.Error("failed to write readyz response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.log.Error("failed to write readyz response", "error", err)
	}
}

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s.cfg.VersionInfo); err != nil {
		s.log.Error("failed to write version response", "error", err)
	}
}
