package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetledger/internal/auth"
	"budgetledger/internal/backend"
	"budgetledger/internal/cli"
	apphttp "budgetledger/internal/http"
	"budgetledger/internal/log"
	"budgetledger/internal/middleware/security"
	"budgetledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, true)

	ctx, stop := cli.SignalContext()
	defer stop()

	factory := backend.NewFactory(logger.Logger)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	result, err := factory.CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			log.FieldOperation, log.OpStartup,
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		os.Exit(1)
	}

	caches := factory.CreateCaches(ctx, cfg)
	amqpClient := factory.CreateAMQPClient(cfg)

	svc := services.NewBudgetService(result.Store, services.Config{
		CurrencySymbol: cfg.CurrencySymbol,
		ChartCache:     caches.Chart,
		SummaryCache:   caches.Summary,
		Publisher:      backend.Publisher(amqpClient),
	})

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Invalid JWT configuration", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	clientIP, err := security.NewClientIP(cfg.TrustedProxies...)
	if err != nil {
		logger.Error("Invalid TRUSTED_PROXIES", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Verifier:           verifier,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ClientIP:           clientIP,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting budgetledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", amqpClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}

	total, failed := srv.Requests()
	if err := errors.Join(svc.Close(), caches.Close()); err != nil {
		logger.Warn("Cleanup reported errors", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
	logger.Info("Server stopped gracefully", "requests", total, "failed_requests", failed)
}
