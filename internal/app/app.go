// Package app wires the control store, service, and read API from config.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"user-control/internal/api"
	"user-control/internal/config"
	internaldb "user-control/internal/db"
	"user-control/internal/db/repository"
	"user-control/internal/middleware"
	"user-control/internal/service/control"
)

const shutdownTimeout = 10 * time.Second

// App holds the shared database pools and the services built on them.
type App struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	WriteDB  *sql.DB
	ReadDB   *sql.DB
	Controls *control.Service
}

// Open opens the control store, applies migrations when AutoMigrate is set,
// and builds the control service. Close releases the pools.
func Open(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, cfg.ReadPoolSize)
	if err != nil {
		return nil, fmt.Errorf("open control store: %w", err)
	}

	if cfg.AutoMigrate {
		if err := internaldb.RunMigrations(writeDB); err != nil {
			_ = readDB.Close()
			_ = writeDB.Close()
			return nil, fmt.Errorf("migrate control store: %w", err)
		}
	}

	repo := repository.NewControlRepo(writeDB, readDB)
	return &App{
		Cfg:      cfg,
		Logger:   logger,
		WriteDB:  writeDB,
		ReadDB:   readDB,
		Controls: control.NewService(repo, logger, cfg.LookupConcurrency),
	}, nil
}

// Close closes both pools.
func (a *App) Close() error {
	return errors.Join(a.ReadDB.Close(), a.WriteDB.Close())
}

// Migrate applies pending migrations and returns the resulting version.
func (a *App) Migrate(ctx context.Context) (int64, error) {
	if err := internaldb.RunMigrations(a.WriteDB); err != nil {
		return 0, err
	}
	return internaldb.SchemaVersion(ctx, a.WriteDB)
}

// Router builds the HTTP handler for the read API. The rate limiter's
// sweeper stops when ctx is done.
func (a *App) Router(ctx context.Context) http.Handler {
	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: a.Cfg.RateLimitRPS,
		Burst:             a.Cfg.RateLimitBurst,
	})
	return api.NewRouter(api.NewHandler(a.Controls, a.Logger), api.RouterOptions{
		Limiter:        limiter,
		AllowedOrigins: a.Cfg.CORSAllowedOrigins,
	})
}

// Serve runs the read API on Cfg.ListenAddr until ctx is done, then shuts
// down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Cfg.ListenAddr,
		Handler:           a.Router(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if _, err := a.Controls.CheckFallback(ctx); err != nil {
		a.Logger.Warn("fallback control missing; lookups will fail until it is imported", "error", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("control API listening", "addr", a.Cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down control API")
		return srv.Shutdown(shutdownCtx)
	}
}
