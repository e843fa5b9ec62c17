// Package main is the entry point for the dispatch API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oficio/internal/app"
	"oficio/internal/config"
	"oficio/internal/domain/auth"
	v1 "oficio/internal/infrastructure/http/v1"
	"oficio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting oficio server", "driver", cfg.Database.Driver, "env", cfg.Env)

	// --- Storage ---
	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.Close()

	// --- Services ---
	dispatchCfg, err := cfg.Dispatch.Generator()
	if err != nil {
		log.Fatalw("invalid dispatch configuration", "error", err)
	}
	services := app.NewServices(store, dispatchCfg)

	// --- JWT ---
	var validator *auth.JWTService
	if cfg.Auth.Secret != "" {
		validator = auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.Secret))
	}

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:      log,
		RequireAuth: cfg.Auth.Enabled,
		Templates:   services.Templates,
		Cases:       services.Cases,
		Sequences:   services.Sequences,
		Units:       store.Units,
		Ping:        store.Ping,
	}
	if validator != nil {
		routerCfg.JWTValidator = validator
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port, "auth", cfg.Auth.Enabled)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
