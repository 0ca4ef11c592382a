package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookshelf/bookshelf-go/internal/config"
	"github.com/bookshelf/bookshelf-go/internal/handler"
	"github.com/bookshelf/bookshelf-go/internal/logger"
	"github.com/bookshelf/bookshelf-go/internal/middleware"
	"github.com/bookshelf/bookshelf-go/internal/openlibrary"
	"github.com/bookshelf/bookshelf-go/internal/repository"
	"github.com/bookshelf/bookshelf-go/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(logger.New(logger.Config{
		Format:      cfg.Log.Format,
		Environment: cfg.Env,
		Level:       logger.ParseLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	catalog := openlibrary.New(openlibrary.Config{
		BaseURL:   cfg.OpenLibrary.BaseURL,
		CoversURL: cfg.OpenLibrary.CoversURL,
		Timeout:   cfg.OpenLibrary.Timeout,
		RPS:       cfg.OpenLibrary.RPS,
		Burst:     cfg.OpenLibrary.Burst,
	})

	router := handler.NewRouter(handler.Deps{
		Auth:              service.NewAuthService(repository.NewUserRepository(db), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Books:             service.NewBookService(repository.NewBookRepository(db)),
		Tags:              service.NewTagService(repository.NewTagRepository(db)),
		Search:            service.NewSearchService(catalog),
		DB:                db,
		JWTSecret:         cfg.Auth.JWTSecret,
		TokenTTL:          cfg.Auth.TokenTTL,
		SecureCookie:      cfg.IsProduction(),
		ClientURL:         cfg.Server.ClientURL,
		RateLimitStore:    middleware.NewMemoryStore(),
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		return err
	}

	slog.Info("server stopped")
	return nil
}
