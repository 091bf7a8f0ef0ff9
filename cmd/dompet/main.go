package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/backend"
	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/config"
	apphttp "dompet/internal/http"
	applog "dompet/internal/log"
	"dompet/internal/middleware/cors"
	"dompet/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	logger.Info("Starting dompet", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err.Error(),
			"backend", backendCfg.Type.String())
		os.Exit(1)
	}

	events, amqpClient := connectEvents(cfg, logger)

	opts := []services.Option{
		services.WithCacheTTL(cfg.CacheTTL),
		services.WithImportConcurrency(cfg.ImportConcurrency),
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger.WithComponent(applog.ComponentLedger)),
	}
	if events != nil {
		opts = append(opts, services.WithEvents(events))
	}
	txs := services.NewTransactionService(result.Store, opts...)
	cats := services.NewCategoryService(result.Store, txs, events)

	if cfg.SeedCategories {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := cats.Seed(seedCtx, services.DefaultCategories)
		cancel()
		if err != nil {
			logger.Error("Failed to seed categories", applog.FieldError, err.Error())
			os.Exit(1)
		}
		services.LogSeed(context.Background(), logger, n)
	}

	cacheManager := cache.NewManager(logger.Logger)
	cacheManager.Register(txs.Cache())
	cacheManager.StartCleanup(cacheCleanupInterval)

	srv := apphttp.NewServer(":"+cfg.Port, txs, cats, result.Store, apphttp.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cors.ParseOrigins(cfg.CORSAllowedOrigins),
		TrustedProxies:     cfg.TrustedProxyCIDRs(),
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		CacheManager:       cacheManager,
		CacheSize:          txs.Cache().Size,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err.Error())
			}
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err.Error())
		}
	})

	logger.Info("Listening",
		"port", cfg.Port,
		"backend", backendCfg.Type.String(),
		"timezone", cfg.Location().String(),
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		_ = result.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// connectEvents dials the broker when AMQP_URL is set. The API keeps
// serving without events when the broker is unreachable.
func connectEvents(cfg *config.Config, logger *applog.Logger) (services.EventPublisher, *amqp.Client) {
	if cfg.AMQPURL == "" {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without ledger events",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldError, err.Error())
		return nil, nil
	}
	logger.Info("Publishing ledger events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, client
}
