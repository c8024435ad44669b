// Command notes-server starts the notes HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/notes-keeper/internal/config"
	"github.com/and161185/notes-keeper/internal/limiter"
	"github.com/and161185/notes-keeper/internal/migrate"
	"github.com/and161185/notes-keeper/internal/repository/postgres"
	"github.com/and161185/notes-keeper/internal/server/httpapi"
	"github.com/and161185/notes-keeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg := config.Load()

	// Flags override the environment.
	addr := flag.String("addr", cfg.HTTPAddr, "listen address")
	dsn := flag.String("dsn", cfg.DatabaseURL, "PostgreSQL DSN")
	jwtKey := flag.String("jwt-key", cfg.JWTKey, "HS256 signing key (required)")
	accessTTL := flag.Duration("access-ttl", cfg.AccessTTL, "access token TTL")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *jwtKey == "" {
		logger.Fatal("missing jwt signing key (--jwt-key or JWT_KEY)")
	}
	if *dsn == "" {
		logger.Fatal("missing database DSN (--dsn or DATABASE_URL)")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, *dsn); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, *dsn)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	noteRepo := postgres.NewNoteRepo(db)
	tagRepo := postgres.NewTagRepo(db)

	lim := limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)

	// Services
	authSvc := service.NewAuthService(userRepo, []byte(*jwtKey), *accessTTL, lim)
	noteSvc := service.NewNoteService(noteRepo, tagRepo)

	api := httpapi.New(authSvc, noteSvc, userRepo, logger)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
