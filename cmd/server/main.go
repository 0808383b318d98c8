package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nicktill/tinygraphite/pkg/config"
	"github.com/nicktill/tinygraphite/pkg/httpx"
	"github.com/nicktill/tinygraphite/pkg/logging"
	"github.com/nicktill/tinygraphite/pkg/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("TINYGRAPHITE_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.Development,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	httpx.SetLogger(logger.Named("http"))

	logger.Info("starting tinygraphite",
		zap.String("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("in_memory", cfg.InMemory),
		zap.Int64("max_storage_gb", cfg.MaxStorageGB),
		zap.Int64("max_memory_mb", cfg.MaxMemoryMB),
		zap.String("functions_file", cfg.FunctionsFile))

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("tinygraphite exited cleanly")
	return nil
}
