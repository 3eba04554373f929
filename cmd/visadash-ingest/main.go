package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"visadash/internal/amqp"
	"visadash/internal/config"
	"visadash/internal/dataset"
	applog "visadash/internal/log"
	"visadash/internal/storage"
)

// visadash-ingest loads a USCIS employer datahub CSV export into the SQLite
// snapshot and, when AMQP is configured, notifies running dashboards to
// refresh.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentIngest})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("Loading dataset export", applog.FieldDatasetPath, cfg.CSVPath)
	ds, err := dataset.LoadCSV(cfg.CSVPath)
	if err != nil {
		logger.Error("Failed to load dataset export",
			applog.FieldError, err,
			applog.FieldDatasetPath, cfg.CSVPath)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			applog.FieldError, err,
			"path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.ReplaceAll(ctx, ds.Records()); err != nil {
		logger.Error("Failed to write snapshot", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Snapshot written",
		"path", cfg.SQLiteDBPath,
		applog.FieldRows, ds.Len())

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		msg := amqp.NewDatasetRefreshMessage(amqp.SourceIngest, cfg.CSVPath, int64(ds.Len()))
		if err := client.PublishRefresh(ctx, msg); err != nil {
			logger.Error("Failed to publish refresh message", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Refresh message published",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	}

	logger.Info("Ingest complete", applog.FieldRows, ds.Len())
}
