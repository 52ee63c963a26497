package main

import (
	"context"
	"fmt"
	"os"

	"salesops/internal/backend"
	"salesops/internal/cli"
	"salesops/internal/config"
	"salesops/internal/log"
	"salesops/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg := config.Load()
	// Keep stdout for the report itself.
	logger := log.New(log.Config{Level: cfg.LogLevel, Component: log.ComponentCLI, Output: os.Stderr})
	if err := cfg.Validate(); err != nil {
		return err
	}

	targets, err := config.NewTargetsLoader(cfg.TargetsFile, logger.Slog())
	if err != nil {
		return fmt.Errorf("load targets: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).Create(context.Background(), bcfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	reports := services.NewReportService(res.Store, targets, 0, logger)
	return cli.NewRootCmd(reports).ExecuteContext(context.Background())
}
