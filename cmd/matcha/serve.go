package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/config"
	httpServer "github.com/redmonkez12/matcha/internal/http"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/photo"
	"github.com/redmonkez12/matcha/internal/profile"
	"github.com/redmonkez12/matcha/internal/tag"
	"github.com/redmonkez12/matcha/internal/token"
)

func runServe(cmd *cobra.Command, _ []string) error {
	migrate, _ := cmd.Flags().GetBool("migrate")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"blob", cfg.Blob.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := initStore(ctx, cfg, migrate, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	limiter, closeRedis, err := initRateLimiter(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer closeRedis()

	mailer, err := initMailer(cfg.Email, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	blobs, disk, err := initBlobs(ctx, cfg.Blob)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	authService := auth.NewService(st, token.NewService(nil), mailer, auth.DefaultHasher, logger, auth.Config{
		VerificationTTL: cfg.Auth.VerificationTTL,
		ResetTTL:        cfg.Auth.ResetTTL,
		SessionTTL:      cfg.Auth.SessionTTL,
		FrontendURL:     cfg.Email.FrontendURL,
	})

	cookies := auth.Cookies{
		SessionName: cfg.Auth.SessionCookie,
		CSRFName:    cfg.Auth.CSRFCookie,
		Secure:      !cfg.Server.IsDevelopment(),
	}

	var csrf *auth.CSRF
	if cfg.Auth.CSRFEnabled {
		csrf, err = auth.NewCSRF(cfg.Auth.CSRFKey, cfg.Auth.CSRFTTL, cookies, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize CSRF protection: %w", err)
		}
	} else {
		logger.Warn("CSRF protection disabled")
	}

	handlers := httpServer.Handlers{
		Auth:         auth.NewHandler(authService, limiter, cookies, logger),
		Session:      auth.NewMiddleware(authService, cookies),
		CSRF:         csrf,
		Profile:      profile.NewHandler(profile.NewService(st), logger),
		Tags:         tag.NewHandler(tag.NewService(st), logger),
		Photos:       photo.NewHandler(photo.NewService(st, blobs, logger), logger),
	}
	if disk != nil {
		handlers.UploadDir = disk.Dir()
		handlers.UploadPrefix = disk.PublicPrefix()
	}

	router := httpServer.NewRouter(cfg, handlers, logger)
	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
