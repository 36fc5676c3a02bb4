package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-abtest/internal/api"
	"github.com/celerix-dev/celerix-abtest/internal/collector"
	"github.com/celerix-dev/celerix-abtest/internal/config"
	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/internal/logging"
	"github.com/celerix-dev/celerix-abtest/internal/server"
)

func main() {
	var cfg config.Daemon
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("%v", err)
	}
	logger := logging.Init(cfg.LogJSON, logging.ParseLevel(cfg.LogLevel))
	if cfg.EventsDB == "" {
		cfg.EventsDB = filepath.Join(cfg.DataDir, "events.db")
	}

	persister, err := engine.NewPersistence(cfg.DataDir)
	if err != nil {
		config.Exitf("Failed to initialize persistence: %v", err)
	}

	initialData, err := persister.LoadAll()
	if err != nil {
		logger.Warn("could not load existing data", "dir", cfg.DataDir, "error", err)
	}

	store := engine.NewMemStore(initialData, persister)
	logger.Info("engine started", "profiles", len(initialData), "dir", cfg.DataDir)

	events, err := collector.NewDatabase(cfg.EventsDB)
	if err != nil {
		config.Exitf("Failed to open events database: %v", err)
	}
	defer events.Close()

	router := server.NewRouter(store)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.CORS())

	(&api.Handler{Store: store}).Register(r.Group("/api"))
	collector.NewHandler(events).Register(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("http listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		logger.Info("tcp listening", "port", cfg.Port)
		if err := router.Listen(cfg.Port); err != nil {
			errc <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, finalizing disk writes")
	case err := <-errc:
		logger.Error("server failed", "error", err)
		exitCode = 1
	}

	router.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}

	store.Wait()
	slog.Info("persistence complete, exiting")
	if exitCode != 0 {
		events.Close()
		os.Exit(exitCode)
	}
}
