package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/backend"
	"dompet/internal/backup"
	"dompet/internal/cli"
	"dompet/internal/config"
	applog "dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	// resyncInterval catches changes whose events were lost.
	resyncInterval = time.Hour
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting dompet-worker", applog.FieldOperation, applog.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.SheetsEnabled() && !cfg.BackupEnabled() {
		logger.Info("Nothing to do - set GOOGLE_SPREADSHEET_ID and/or BACKUP_BUCKET")
		return
	}
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Invalid worker configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer result.Close()

	// Reads go straight to the store; the API process owns the cache.
	ledger := services.NewTransactionService(result.Store,
		services.WithCacheTTL(0),
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger.WithComponent(applog.ComponentLedger)))

	var (
		wg       sync.WaitGroup
		stoppers []func()
	)
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		for _, stop := range stoppers {
			stop()
		}
		wg.Wait()
	})

	if cfg.SheetsEnabled() {
		lw, closeAMQP, err := startMirror(ctx, cfg, ledger, logger, &wg)
		if err != nil {
			logger.Error("Failed to start sheets mirror",
				applog.FieldComponent, applog.ComponentSheets,
				applog.FieldError, err.Error())
			os.Exit(1)
		}
		if closeAMQP != nil {
			stoppers = append(stoppers, closeAMQP)
		}
		stoppers = append(stoppers, func() {
			s := lw.Stats()
			logger.Info("Mirror stats",
				"handled", s.Handled,
				"ignored", s.Ignored,
				"refreshes", s.Refreshes,
				"failures", s.Failures)
		})
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	if cfg.BackupEnabled() {
		stop, err := startBackups(ctx, cfg, ledger, logger)
		if err != nil {
			logger.Error("Failed to start backups",
				applog.FieldComponent, applog.ComponentBackup,
				applog.FieldError, err.Error())
			os.Exit(1)
		}
		stoppers = append(stoppers, stop)
	} else {
		logger.Info("Backups disabled - no BACKUP_BUCKET provided")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// startMirror wires the sheets mirror to the event queue. Without AMQP the
// mirror is refreshed on startup and every resyncInterval only.
func startMirror(ctx context.Context, cfg *config.Config, ledger sheets.Exporter, logger *applog.Logger, wg *sync.WaitGroup) (*worker.LedgerWorker, func(), error) {
	clientJSON, err := gsheet.ReadCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, nil, err
	}
	tokenJSON, err := gsheet.ReadCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, nil, err
	}
	sheetsClient, err := gsheet.NewFromOAuth(ctx, cfg.GoogleSpreadsheetID, clientJSON, tokenJSON)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	lw := worker.NewLedgerWorker(sheets.NewMirror(sheetsClient, ledger, cfg.GoogleSheetName), cfg.MirrorDebounce)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = lw.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				lw.Trigger()
			}
		}
	}()
	lw.Trigger()

	if cfg.AMQPURL == "" {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
		return lw, nil, nil
	}
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := amqpClient.Consume(ctx, lw.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed",
				applog.FieldComponent, applog.ComponentAMQP,
				applog.FieldError, err.Error())
		}
	}()
	logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue)
	return lw, func() { _ = amqpClient.Close() }, nil
}

func startBackups(ctx context.Context, cfg *config.Config, ledger backup.Exporter, logger *applog.Logger) (func(), error) {
	uploader, closeStorage, err := backup.NewGCSUploader(ctx, cfg.BackupBucket, cfg.BackupPrefix, ledger)
	if err != nil {
		return nil, err
	}
	scheduler := backup.NewScheduler(ctx, uploader, cfg.Location())
	id, err := scheduler.Schedule(cfg.BackupSchedule)
	if err != nil {
		_ = closeStorage()
		return nil, err
	}
	scheduler.Start()
	logger.Info("Backups scheduled",
		"bucket", cfg.BackupBucket,
		"schedule", cfg.BackupSchedule,
		"next", scheduler.Next(id))

	return func() {
		scheduler.Stop()
		if err := closeStorage(); err != nil {
			logger.Warn("Storage client close error", applog.FieldError, err.Error())
		}
	}, nil
}
