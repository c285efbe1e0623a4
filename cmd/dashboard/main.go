package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dexwatch/dexfeed/internal/config"
	"github.com/dexwatch/dexfeed/internal/feed"
	"github.com/dexwatch/dexfeed/internal/httpapi"
	"github.com/dexwatch/dexfeed/internal/room"
	"github.com/dexwatch/dexfeed/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashboard.yaml", "path to config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)
	logger.Info("configuration loaded",
		"feed_url", cfg.Feed.URL,
		"server_port", cfg.Server.Port,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Room store
	store := room.NewStore(room.Config{
		TransactionCap:       cfg.Rooms.TransactionCap,
		GlobalTransactionCap: cfg.Rooms.GlobalTransactionCap,
		CandleCap:            cfg.Rooms.CandleCap,
	}, logger)

	// Feed connection manager
	manager := feed.NewManager(feed.Config{
		URL:              cfg.Feed.URL,
		ReconnectDelay:   cfg.Feed.ReconnectDelay,
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		WriteTimeout:     cfg.Feed.WriteTimeout,
		BufferSize:       cfg.Feed.BufferSize,
	}, store, logger)

	// A dial failure here is not fatal: the manager keeps retrying on
	// its own timer.
	if err := manager.Connect(ctx); err != nil {
		logger.Warn("initial feed connect failed, retrying in background", "error", err)
	}

	// HTTP read API
	api := httpapi.NewHandler(store, manager, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.SetupRoutes(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down")
		manager.Disconnect()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("dashboard stopped")
}

// loadConfig loads the config file, falling back to built-in defaults
// when the file does not exist.
func loadConfig(path string) (*config.DashboardConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
