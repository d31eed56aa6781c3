package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bikedash/internal/amqp"
	"bikedash/internal/backend"
	"bikedash/internal/cli"
	"bikedash/internal/dataset"
	"bikedash/internal/export/sheets"
	applog "bikedash/internal/log"
	"bikedash/internal/services"
	"bikedash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting bikedash-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	source, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to create dataset backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if source.Cleanup != nil {
			_ = source.Cleanup()
		}
	}()

	holder := dataset.NewHolder(source.Loader)
	if err := holder.Reload(startCtx); err != nil {
		// Each job reloads again before exporting.
		logger.Warn("Initial dataset load failed", applog.FieldError, err)
	}

	// Google Sheets publishing is optional.
	var sheetsPublisher worker.SheetsPublisher
	if cfg.SheetsEnabled() {
		creds, err := sheets.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			logger.Error("Failed to read Google credentials", applog.FieldError, err)
			os.Exit(1)
		}
		writer, err := sheets.NewGoogleWriter(context.Background(), cfg.GoogleSpreadsheetID, creds)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		sheetsPublisher = sheets.NewPublisher(writer, cfg.GoogleSheetPrefix, sheets.DefaultBreakerConfig())
		logger.Info("Google Sheets publishing enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	exportWorker := worker.NewExportWorker(holder, holder, services.NewDashboardService(services.DefaultRankedMonths), cfg.ExportDir, sheetsPublisher)

	var (
		scheduler   *worker.Scheduler
		schedClient *amqp.Client
	)
	if cfg.ExportSchedule != "" {
		schedClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP publisher for scheduled exports", applog.FieldError, err)
			os.Exit(1)
		}
		targets := []string{amqp.TargetFile}
		if sheetsPublisher != nil {
			targets = append(targets, amqp.TargetSheets)
		}
		scheduler, err = worker.NewScheduler(cfg.ExportSchedule, holder, services.NewExportService(schedClient), targets...)
		if err != nil {
			logger.Error("Invalid export schedule", applog.FieldError, err)
			os.Exit(1)
		}
		scheduler.Start()
		logger.Info("Scheduled exports enabled", "schedule", cfg.ExportSchedule, "next", scheduler.Next())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		err := amqp.RunConsumer(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, exportWorker.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop(ctx)
		}
		cancel()
		select {
		case <-consumerDone:
		case <-ctx.Done():
		}
		if schedClient != nil {
			_ = schedClient.Close()
		}
	})

	select {
	case <-shutdownCtx.Done():
		<-done
	case <-consumerDone:
		logger.Warn("Consumer stopped, shutting down")
		if scheduler != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			scheduler.Stop(stopCtx)
			stopCancel()
		}
		if schedClient != nil {
			_ = schedClient.Close()
		}
	}
	logger.Info("Worker shutdown complete")
}
