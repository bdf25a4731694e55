package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finsight/internal/cache"
	"finsight/internal/charts"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
	"finsight/internal/ingest"
	fileingest "finsight/internal/ingest/file"
	"finsight/internal/ingest/google"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	history := cli.InitHistory(logger, cfg)
	chartCache := cache.NewLRUCache[[]byte](cfg.ChartCacheSize, cfg.ChartCacheTTL)

	opts := services.Options{
		History: history,
		Charts:  chartCache,
		Logger:  logger,
	}
	// a nil *amqp.Client must not become a non-nil interface
	if publisher := cli.InitPublisher(logger, cfg); publisher != nil {
		opts.Publisher = publisher
	}
	svc := services.NewAnalysisService(session.NewStore(), opts)

	var sheets ingest.RowSource
	if cfg.SheetsEnabled() {
		client, err := google.New(context.Background(), google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			Range:           cfg.GoogleSheetRange,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.WithComponent(log.ComponentSheets).Warn("Google Sheets import disabled", log.FieldError, err)
		} else {
			sheets = client
			logger.Info("Google Sheets import enabled", log.FieldSource, client.Name())
		}
	}

	if cfg.SeedFile != "" {
		seed(logger, svc, cfg.SeedFile)
	}

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Sheets:             sheets,
		ChartCache:         chartCache,
		Renderer:           charts.NewRenderer(),
		Logger:             logger,
	}, svc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Service close error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
		}
	})

	logger.Info("Starting finsight server",
		"port", cfg.Port,
		"history_backend", cfg.HistoryBackend,
		"amqp", opts.Publisher != nil,
		"sheets", sheets != nil,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// seed analyzes a local dataset so the dashboard has data right after start.
// A bad seed file is logged and skipped.
func seed(logger *log.Logger, svc *services.AnalysisService, path string) {
	src, err := fileingest.Open(path)
	if err != nil {
		logger.Warn("Seed file skipped", log.FieldSource, path, log.FieldError, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := svc.Ingest(ctx, src); err != nil {
		logger.Warn("Seed file skipped", log.FieldSource, path, log.FieldError, err)
	}
}
