// Package main is the entry point for the cmsearch API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"cmsearch/internal/config"
	"cmsearch/internal/domain/auth"
	"cmsearch/internal/domain/search"
	v1 "cmsearch/internal/infrastructure/http/v1"
	"cmsearch/internal/infrastructure/storage/postgres"
	"cmsearch/internal/infrastructure/storage/postgres/search_repo"
	"cmsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(logger.WithLogger(ctx, log), cfg, log)
	stop()
	if err != nil {
		log.Errorw("server exited with error", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

// run wires the server and blocks until ctx is cancelled or the listener
// fails. Deferred cleanup always runs before it returns.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Infow("starting cmsearch server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txOpts := postgres.DefaultReadOnlyOptions()
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txManager := postgres.NewTxManager(pool, txOpts)

	// --- Search engine ---
	registry := search.NewRegistry(search_repo.NewSearchers(txManager)...)
	searchService := search.NewService(registry, txManager, search.Config{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	})
	log.Infow("search engine initialized", "entity_types", registry.Types())

	// --- JWT ---
	jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtConfig.Issuer = cfg.Auth.Issuer
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		DB:           pool,
		Logger:       log,
		JWTValidator: jwtService,
		Search:       searchService,
		Debug:        cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      gzhttp.GzipHandler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go reportPoolStats(ctx, pool, time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful shutdown ---
	var listenErr error
	select {
	case <-ctx.Done():
	case listenErr = <-serverErr:
		log.Errorw("server failed", "error", listenErr)
	}

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
	return listenErr
}

func reportPoolStats(ctx context.Context, pool *postgres.Pool, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			postgres.LogPoolStats(ctx, pool)
		}
	}
}
