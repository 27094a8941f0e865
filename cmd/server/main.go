package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"edufinanzas/internal/api"
	"edufinanzas/internal/config"
	"edufinanzas/internal/database"
	"edufinanzas/internal/handlers"
	"edufinanzas/internal/logger"
	"edufinanzas/internal/repository"
	"edufinanzas/internal/security"
	"edufinanzas/internal/service"
	"edufinanzas/internal/session"
	"edufinanzas/internal/templates"
	"edufinanzas/internal/validation"
)

const (
	stepSessionStore = "session_store"
	stepTemplates    = "templates"
	stepEmail        = "email"
)

func main() {
	cfg := config.Load()

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error("server stopped", "error", err)
		appLog.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger) error {
	status := handlers.NewStartupStatus(stepSessionStore, stepTemplates, stepEmail)

	backend, closeStore, err := openSessionBackend(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer closeStore()

	sealer, err := security.NewSealer(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("session sealer: %w", err)
	}
	sealed := session.NewSealedBackend(backend, sealer)
	status.CompleteStep(stepSessionStore)

	client := api.New(api.Config{
		BaseURL:      cfg.APIBaseURL,
		MediaBaseURL: cfg.MediaBaseURL,
		Timeout:      cfg.APITimeout,
	}, appLog)

	tmpl, err := templates.Load(client.ImageURL)
	if err != nil {
		return err
	}
	status.CompleteStep(stepTemplates)
	appLog.Info("templates loaded")

	emailService, err := service.NewEmailService(ctx, service.EmailConfig{
		Region:     cfg.AWSRegion,
		FromEmail:  cfg.SESFromEmail,
		FromName:   cfg.SESFromName,
		AppBaseURL: cfg.AppBaseURL,
		Debug:      cfg.EmailDebug,
	}, appLog)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}
	status.CompleteStep(stepEmail)
	appLog.Info("email service ready", "enabled", emailService.IsEnabled())

	v := validation.New()
	catalog := service.NewCatalogService(client, appLog)
	challenges := service.NewChallengeService(catalog, client, appLog)
	accounts := service.NewAccountService(client, v, emailService, appLog)
	admin := service.NewAdminService(client, v, appLog)

	csrf := security.NewCSRF(cfg.SessionSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	renderer := handlers.NewRenderer(tmpl, csrf, appLog)
	middleware := handlers.NewMiddleware(handlers.MiddlewareConfig{
		Backend:      sealed,
		Auth:         client,
		CSRF:         csrf,
		Limiter:      limiter,
		SessionTTL:   cfg.SessionDuration,
		MaxBodyBytes: cfg.UploadMaxSize + 1<<20,
		Logger:       appLog,
	})

	router := handlers.NewRouter(middleware, handlers.Handlers{
		Auth:    handlers.NewAuthHandler(catalog, accounts, v, renderer, appLog),
		Learn:   handlers.NewLearnHandler(catalog, challenges, renderer, appLog),
		Profile: handlers.NewProfileHandler(accounts, client, cfg.UploadMaxSize, renderer, appLog),
		Admin:   handlers.NewAdminHandler(admin, renderer, appLog),
		Health:  status,
	}, cfg.StaticFilesPath)

	go purgeExpiredSessions(ctx, sealed, appLog)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("server starting", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	status.MarkReady()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openSessionBackend connects the configured session store. The returned
// func releases it.
func openSessionBackend(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (session.Backend, func(), error) {
	switch strings.ToLower(cfg.SessionStore) {
	case "memory":
		appLog.Warn("using in-memory session store; sessions are lost on restart")
		return session.NewMemoryBackend(cfg.SessionDuration), func() {}, nil

	case "redis":
		rdb, err := repository.NewRedisClient(ctx, repository.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		appLog.Info("session store connected", "store", "redis", "addr", cfg.RedisAddr)
		return repository.NewRedisSessionRepository(rdb, cfg.SessionDuration), func() { rdb.Close() }, nil

	case "database", "":
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		appLog.Info("session store connected", "store", "database", "type", cfg.DatabaseType)
		return repository.NewSessionValueRepository(db, cfg.SessionDuration), func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported session store: %s", cfg.SessionStore)
	}
}

// purgeExpiredSessions periodically removes expired session values
func purgeExpiredSessions(ctx context.Context, backend session.Backend, appLog *logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := backend.Purge(ctx)
			if err != nil {
				appLog.Error("purging expired sessions failed", "error", err)
				continue
			}
			appLog.Info("expired sessions purged", "count", n)
		}
	}
}
