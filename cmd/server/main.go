package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"user-api/internal/api"
	"user-api/internal/auth"
	"user-api/internal/avatar"
	"user-api/internal/config"
	"user-api/internal/db"
	"user-api/internal/logger"
	"user-api/internal/user"
)

const (
	shutdownTimeout = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

// httpServer is the part of *http.Server that run needs.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

// run serves until a signal arrives or the server fails, then shuts down.
// It returns the process exit code.
func run(srv httpServer, sigCh <-chan os.Signal, log zerolog.Logger) int {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = srv.Close()
	}
	log.Info().Msg("shutdown complete")
	return 0
}

// buildDeps wires the stores and services from cfg. The returned cleanup
// closes the database pool.
func buildDeps(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*api.Deps, func(), error) {
	conn, err := db.Open(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	deps := &api.Deps{
		Users:       user.NewStore(conn),
		Hasher:      user.NewHasher(cfg.Auth.BcryptCost),
		Tokens:      auth.NewCodec(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		CORSOrigins: cfg.CORS.Origins,
		Log:         log,
	}

	if cfg.Avatar.Bucket == "" {
		log.Warn().Msg("avatar bucket not configured, uploads are disabled")
		return deps, cleanup, nil
	}
	host, err := avatar.NewS3Host(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("avatar host: %w", err)
	}
	deps.Avatars = avatar.NewUploader(host, cfg.Avatar.Folder, cfg.Avatar.MaxBytes)
	return deps, cleanup, nil
}

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	deps, cleanup, err := buildDeps(context.Background(), cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.SetupRouter(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  idleTimeout,
	}
	log.Info().Str("addr", srv.Addr).Dur("token_ttl", deps.Tokens.TTL()).Msg("starting server")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	code := run(srv, sigCh, log)
	cleanup()
	os.Exit(code)
}
