package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/storage/badger"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 10 * time.Second
	gcDiscardRatio     = 0.5
)

// Run serves HTTP on the configured port until ctx is done, then shuts
// everything down. The session hub, the function document watcher and the
// badger GC scheduler run alongside the server; the first of them to fail
// stops the rest.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.cfg.Port, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		// without a watcher the table is still reloadable over HTTP
		if err := s.loader.Watch(ctx); err != nil {
			s.logger.Warn("function document watcher stopped", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		RunBadgerGC(ctx, s, config.BadgerGCInterval)
		return nil
	})

	g.Go(func() error {
		s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// RunBadgerGC runs BadgerDB value log garbage collection every interval until
// ctx is done. Stores other than badger have nothing to collect.
func RunBadgerGC(ctx context.Context, s *Server, interval time.Duration) {
	store, ok := s.store.(*badger.Storage)
	if !ok {
		s.logger.Debug("storage is not BadgerDB, skipping GC")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("BadgerDB GC scheduler started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping BadgerDB GC scheduler")
			return
		case <-ticker.C:
			start := time.Now()
			err := store.RunGC(gcDiscardRatio)
			switch {
			case err == nil:
				s.logger.Info("BadgerDB GC reclaimed space", zap.Duration("took", time.Since(start)))
			case errors.Is(err, badgerdb.ErrNoRewrite):
				s.logger.Debug("BadgerDB GC found nothing to rewrite")
			default:
				s.logger.Warn("BadgerDB GC failed", zap.Error(err))
			}
		}
	}
}
