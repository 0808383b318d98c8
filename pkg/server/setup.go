package server

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/export"
	"github.com/nicktill/tinygraphite/pkg/functions"
	"github.com/nicktill/tinygraphite/pkg/model"
	"github.com/nicktill/tinygraphite/pkg/server/monitor"
	"github.com/nicktill/tinygraphite/pkg/session"
	"github.com/nicktill/tinygraphite/pkg/storage"
	"github.com/nicktill/tinygraphite/pkg/storage/badger"
	"github.com/nicktill/tinygraphite/pkg/storage/memory"
)

// Server wires the query engine, panel store, function table and editing
// sessions behind one HTTP handler.
type Server struct {
	cfg    config.Config
	logger *zap.Logger

	store           storage.Store
	loader          *functions.Loader
	hub             *session.Hub
	metrics         *Metrics
	storageMonitor  *monitor.StorageMonitor
	registryMonitor *monitor.RegistryMonitor

	queryHandler  *model.Handler
	exportHandler *export.Handler
	handler       http.Handler
}

// New builds a server from cfg. The function table is loaded before New
// returns; a broken description document is logged and the built-in table
// served instead.
func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := InitializeStorage(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &Server{
		cfg:             cfg,
		logger:          logger,
		store:           store,
		loader:          functions.NewLoader(cfg.FunctionsFile, logger.Named("functions")),
		registryMonitor: &monitor.RegistryMonitor{},
	}

	dataDir := cfg.DataDir
	if cfg.InMemory {
		dataDir = ""
	}
	s.storageMonitor = monitor.NewStorageMonitor(dataDir, cfg.MaxStorageBytes())

	s.hub = session.NewHub(s.loader.Registry, logger.Named("session"), cfg.AllowedOrigins)
	s.metrics = NewMetrics(s.hub.Count)

	s.queryHandler = model.NewHandler(s.loader.Registry, logger.Named("query"))
	s.queryHandler.SetObserver(s.metrics)
	s.exportHandler = export.NewHandler(store, s.loader.Registry, logger.Named("export"))

	s.loader.OnReload(s.onRegistryReload)
	if err := s.loader.Load(); err != nil {
		logger.Warn("serving built-in function table", zap.Error(err))
	}

	s.handler = SetupRoutes(s)
	return s, nil
}

// InitializeStorage opens the panel store selected by cfg.
func InitializeStorage(cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.InMemory {
		logger.Info("using in-memory panel storage")
		return memory.New(), nil
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := badger.New(badger.Config{
		Path:        cfg.DataDir,
		MaxMemoryMB: cfg.MaxMemoryMB,
		Logger:      logger.Named("badger"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("BadgerDB panel storage initialized",
		zap.String("path", cfg.DataDir),
		zap.Int64("max_memory_mb", cfg.MaxMemoryMB))
	return store, nil
}

func (s *Server) onRegistryReload(r *functions.Registry, err error) {
	n := 0
	if r != nil {
		n = r.Len()
	}
	s.registryMonitor.Observe(n, err)
	s.metrics.ObserveReload(err)

	reply := session.Reply{Type: session.ReplyRegistryReloaded}
	if err != nil {
		reply.Error = err.Error()
	}
	if err := s.hub.Broadcast(reply); err != nil {
		s.logger.Warn("failed to announce function table reload", zap.Error(err))
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the panel store.
func (s *Server) Store() storage.Store {
	return s.store
}

// Close releases the panel store.
func (s *Server) Close() error {
	return s.store.Close()
}
