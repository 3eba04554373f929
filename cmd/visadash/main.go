package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"visadash/internal/amqp"
	"visadash/internal/backend"
	"visadash/internal/config"
	"visadash/internal/dataset"
	apphttp "visadash/internal/http"
	applog "visadash/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentApp})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	watchlist, err := cfg.Watchlist()
	if err != nil {
		logger.Error("Failed to load watch-list", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the initial dataset snapshot.
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open dataset backend",
			applog.FieldError, err,
			applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}
	holder := dataset.NewHolder(result.Dataset)

	reloadAndSwap := func(ctx context.Context) error {
		ds, err := result.Reload(ctx)
		if err != nil {
			return err
		}
		holder.Swap(ds)
		logger.Info("Dataset snapshot refreshed", applog.FieldRows, ds.Len())
		return nil
	}

	// Optional AMQP refresh messaging. With a client, the admin endpoint
	// publishes a refresh request and the consumer below performs the swap,
	// so every replica behind the exchange could pick it up. Without one,
	// the endpoint reloads the backend directly.
	var amqpClient *amqp.Client
	refresh := reloadAndSwap
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		refresh = func(ctx context.Context) error {
			ds := holder.Get()
			msg := amqp.NewDatasetRefreshMessage(amqp.SourceAdmin, cfg.CSVPath, int64(ds.Len()))
			return amqpClient.PublishRefresh(ctx, msg)
		}
		logger.Info("AMQP refresh messaging enabled",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	}

	srv := apphttp.NewServer(":"+cfg.Port, holder, apphttp.Options{
		Watchlist:     watchlist,
		TopIndustries: cfg.TopIndustries,
		TopEmployers:  cfg.TopEmployers,
		MaxRecordRows: cfg.MaxRecordRows,
		Refresh:       refresh,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting visadash server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			applog.FieldRows, result.Dataset.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqp.ConsumeRefreshWithReconnect(gctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
				func(msg *amqp.DatasetRefreshMessage) error {
					logger.Info("Refresh message received",
						"source", msg.Source,
						applog.FieldDatasetPath, msg.Path)
					return reloadAndSwap(gctx)
				})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
