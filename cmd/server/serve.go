package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/quizboard/quizboard/api"
	"github.com/quizboard/quizboard/internal/api"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/config"
	"github.com/quizboard/quizboard/internal/database"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/play"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/session"
	"github.com/quizboard/quizboard/internal/storage"
)

func runServe(ctx context.Context) error {
	cfg, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	denylist, closeDenylist, err := initDenylist(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDenylist()

	store, uploads, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}

	userRepo := auth.NewRepository(db.Pool())
	gameRepo := game.NewRepository(db.Pool())
	authService := auth.NewService(userRepo, denylist, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	authoringService := authoring.NewService(
		gameRepo,
		category.NewRepository(db.Pool()),
		question.NewRepository(db.Pool()),
		storage.NewUploader(store, cfg.MaxUploadBytes),
	)

	hub := play.NewHub(cfg.CORSAllowedOrigins)
	sessions := play.NewManager(hub, play.WithMaxSessions(cfg.PlayMaxSessions))

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	sweeper := play.NewSweeper(sessions, cfg.PlayIdleTimeout, cfg.PlaySweepInterval)
	go sweeper.Start(sweepCtx)

	router := api.NewRouter(api.RouterDeps{
		DBPinger:       db,
		Version:        cfg.Version,
		OpenAPISpec:    specpkg.OpenAPISpec,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AuthService:    authService,
		UserRepo:       userRepo,
		GameRepo:       gameRepo,
		Authoring:      authoringService,
		Sessions:       sessions,
		Hub:            hub,
		Uploads:        uploads,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting quizboard server", "port", cfg.Port, "version", cfg.Version, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	sweepCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// initDenylist picks Redis when REDIS_URL is set so revocations are shared
// between replicas, and an in-process list otherwise.
func initDenylist(ctx context.Context, cfg *config.Config) (session.Denylist, func(), error) {
	if cfg.RedisURL == "" {
		slog.Info("using in-memory token denylist")
		return session.NewMemoryDenylist(), func() {}, nil
	}

	d, err := session.NewRedisDenylist(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	slog.Info("using redis token denylist")
	return d, func() {
		if err := d.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// initStore returns the configured object store and, for local storage, the
// handler that serves stored files under /uploads/.
func initStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.StorageBackend {
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to object storage: %w", err)
		}
		return s, nil, nil
	case "local", "":
		s, err := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("preparing upload directory: %w", err)
		}
		return s, s.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want local or s3)", cfg.StorageBackend)
	}
}
