package main

import (
	"context"
	"errors"
	"os"
	"time"

	"salesops/internal/amqp"
	"salesops/internal/backend"
	"salesops/internal/cli"
	"salesops/internal/config"
	"salesops/internal/log"
	"salesops/internal/services"
	"salesops/internal/store/google"
	"salesops/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.Wrap(nil, log.ComponentWorker).Warn("Ignoring .env file", log.FieldError, err)
	}
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	if !cfg.ExportEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required to run the export worker")
		os.Exit(1)
	}

	ctx := context.Background()

	targets, err := config.NewTargetsLoader(cfg.TargetsFile, logger.Slog())
	if err != nil {
		logger.Error("Failed to load targets", log.FieldError, err, "path", cfg.TargetsFile)
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The worker only reads; it consumes change messages instead of publishing them.
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}

	creds, err := google.Credentials(cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile)
	if err != nil {
		logger.Error("Google credentials unavailable", log.FieldError, err)
		os.Exit(1)
	}
	exporter, err := google.New(ctx, cfg.GoogleSpreadsheetID, logger, creds)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	reports := services.NewReportService(res.Store, targets, cfg.ReportCacheTTL, logger)
	targets.OnChange(func(config.Targets) { reports.Invalidate() })

	exportWorker := worker.NewExportWorker(reports, exporter, worker.Config{
		Period:   cfg.ExportPeriod,
		Interval: cfg.ExportInterval,
		Debounce: cfg.ExportDebounce,
		Roster:   true,
	}, logger)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled, exporting on the interval only", "interval", cfg.ExportInterval)
	}

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := exportWorker.Stop(ctx); err != nil {
			logger.Error("Export worker stop error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	if err := exportWorker.Start(runCtx); err != nil {
		logger.Error("Failed to start export worker", log.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeEventChanges(runCtx, exportWorker.HandleEventChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	}

	<-done
	logger.Info("Worker stopped")
}
