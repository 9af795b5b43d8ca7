package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staysearch/internal/infra/config"
	ginserver "staysearch/internal/infra/http/gin"
	"staysearch/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Default()
		cfg.Env = getenv("APP_ENV", cfg.Env)
	}
	logger, closeLogs := newLogger(cfg)
	defer closeLogs()
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Warn("using fallback configuration", "error", cfgErr)
	}

	metrics := obs.NewMetrics()
	app := buildApplication(ctx, cfg, logger, metrics)
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready:  app.ready,
		Report: app.monitor.Report,
	}, app.handlers)

	if err := app.monitor.Start(ctx); err != nil {
		logger.Warn("health monitor not started", "error", err)
	}
	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "sources", app.sourceNames())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// newLogger builds the console logger, adding Fluent shipping when enabled.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	level := obs.ParseLevel(cfg.LogLevel)
	if !cfg.FluentEnabled {
		return obs.NewLogger(cfg.Env, level), func() {}
	}
	client, err := obs.NewFluentClient(obs.FluentConfig{Host: cfg.FluentHost, Port: cfg.FluentPort, TagPrefix: "staysearch"})
	if err != nil {
		logger := obs.NewLogger(cfg.Env, level)
		logger.Warn("fluent logging disabled", "error", err)
		return logger, func() {}
	}
	return obs.NewLogger(cfg.Env, level, obs.NewFluentHandler(client, level)), func() { _ = client.Close() }
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
