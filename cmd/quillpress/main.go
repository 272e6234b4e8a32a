// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the QuillPress blog API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"quillpress/internal/auth"
	"quillpress/internal/blog"
	"quillpress/internal/cache"
	"quillpress/internal/config"
	"quillpress/internal/database"
	"quillpress/internal/handlers"
	"quillpress/internal/logging"
	"quillpress/internal/middleware"
	"quillpress/internal/router"
	"quillpress/internal/storage"
	"quillpress/internal/store"
	"quillpress/internal/store/memory"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("quillpress exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables (and .env).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Structured logger: JSON in production, text in development, errors
	// mirrored to Sentry when a DSN is configured.
	logger, flush := logging.New(os.Stdout, logging.Options{
		Env:       cfg.Env,
		Level:     cfg.LogLevel,
		SentryDSN: cfg.SentryDSN,
		Release:   version,
	})
	defer flush()
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreDriver,
	)

	ctx := context.Background()

	var (
		categories blog.CategoryRepository
		posts      blog.PostRepository
		cacheLog   handlers.CacheLogger
		db         *sql.DB
	)

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err = database.Connect(cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		if cfg.SeedDB {
			if err := database.Seed(ctx, db); err != nil {
				return err
			}
		}

		categories = store.NewCategoryStore(db)
		posts = store.NewPostStore(db)
		cacheLog = store.NewCacheLogStore(db)
	case config.DriverMemory:
		mem := memory.New()
		categories, posts = mem.Categories, mem.Posts
		slog.Warn("using in-memory store, data is lost on restart")
	}

	svc := blog.NewService(categories, posts)
	if cfg.StoreDriver == config.DriverMemory && cfg.SeedDB {
		if _, err := svc.CreateCategory(ctx, blog.CategoryInput{Name: database.DefaultCategoryName}); err != nil {
			return err
		}
	}

	// Valkey response cache (optional).
	var responses *cache.ResponseCache
	if cfg.CacheEnabled() {
		var client *redis.Client
		client, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			return err
		}
		defer client.Close()
		responses = cache.NewResponseCache(client, cache.DefaultTTL)
	} else {
		slog.Warn("valkey not configured, response caching disabled")
	}

	// S3-compatible object storage for OG images (optional).
	var media handlers.MediaStorage
	if cfg.StorageEnabled() {
		client, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3PublicURL,
		)
		if err != nil {
			return err
		}
		if client != nil {
			media = client
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketPublic)
		}
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	authn, err := auth.New(cfg.Auth)
	if err != nil {
		return err
	}
	if authn.TOTPEnabled() {
		slog.Info("two-factor login enabled", "username", cfg.Auth.Username)
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute, "Too many login attempts, please try again later")
	defer loginLimiter.Stop()

	deps := router.Deps{
		Public:       handlers.NewPublic(svc, responses, cfg.FrontendURL),
		Admin:        handlers.NewAdmin(svc, responses, cacheLog, media),
		Auth:         handlers.NewAuth(authn),
		Verifier:     authn,
		LoginLimiter: loginLimiter,
		FrontendURL:  cfg.FrontendURL,
	}
	if db != nil {
		deps.DB = db
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
