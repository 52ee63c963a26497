package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salesops/internal/backend"
	"salesops/internal/cache"
	"salesops/internal/cli"
	"salesops/internal/config"
	apphttp "salesops/internal/http"
	"salesops/internal/log"
	"salesops/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.Wrap(nil, log.ComponentApp).Warn("Ignoring .env file", log.FieldError, err)
	}
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	targets, err := config.NewTargetsLoader(cfg.TargetsFile, logger.Slog())
	if err != nil {
		logger.Error("Failed to load targets", log.FieldError, err, "path", cfg.TargetsFile)
		os.Exit(1)
	}
	stopWatch, err := targets.Watch()
	if err != nil {
		logger.Warn("Targets file will not be reloaded", log.FieldError, err)
		stopWatch = func() {}
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	events := services.NewEventService(res.Store, logger, services.WithPublisher(res.Publisher))
	companies := services.NewCompanyService(res.Store, logger)
	reports := services.NewReportService(res.Store, targets, cfg.ReportCacheTTL, logger)
	events.OnChange(reports.Invalidate)
	targets.OnChange(func(config.Targets) { reports.Invalidate() })

	caches := cache.NewManager(logger)
	caches.Register(reports.Cache())
	caches.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Events:    events,
		Companies: companies,
		Reports:   reports,
		Ready:     res.Store,
	}, logger)

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		stopWatch()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting salesops server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
