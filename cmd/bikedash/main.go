package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bikedash/internal/amqp"
	"bikedash/internal/backend"
	"bikedash/internal/cli"
	"bikedash/internal/dataset"
	"bikedash/internal/dataset/watch"
	apphttp "bikedash/internal/http"
	applog "bikedash/internal/log"
	"bikedash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

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

	// A failed first load keeps the server up; /readyz reports 503 until a
	// reload succeeds.
	holder := dataset.NewHolder(source.Loader)
	if err := holder.Reload(startCtx); err != nil {
		logger.Error("Initial dataset load failed", applog.FieldError, err, applog.FieldOperation, applog.OpLoad)
	}

	var watcher *watch.Watcher
	if cfg.WatchData && len(source.Files) > 0 {
		watcher, err = watch.New(source.Files, holder, watch.DefaultDebounce)
		if err != nil {
			logger.Error("Failed to watch dataset files", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Watching dataset files for changes", "files", source.Files)
	}

	// Exports are optional; without a broker POST /exports answers 503.
	var (
		amqpClient *amqp.Client
		publisher  services.ExportPublisher
	)
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, exports disabled", applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger.WithComponent(applog.ComponentHTTP),
	}, holder, services.NewDashboardService(services.DefaultRankedMonths), services.NewExportService(publisher))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if watcher != nil {
			_ = watcher.Close()
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if source.Cleanup != nil {
			if err := source.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}
	})

	if watcher != nil {
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Dataset watcher stopped", applog.FieldError, err)
			}
		}()
	}

	logger.Info("Starting bikedash server", "port", cfg.Port, "backend", cfg.DataBackend, applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
