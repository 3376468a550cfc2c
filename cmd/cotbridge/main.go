package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skysift/cotbridge/internal/api"
	"github.com/skysift/cotbridge/internal/config"
	"github.com/skysift/cotbridge/internal/gateway"
	"github.com/skysift/cotbridge/internal/metrics"
	"github.com/skysift/cotbridge/internal/storage/sqlite"
	"github.com/skysift/cotbridge/internal/tak"
	"github.com/skysift/cotbridge/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cotbridge: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cotbridge: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Gateway terminated", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	var recorder tak.EventRecorder
	var storage *sqlite.EventStorage
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		storage, err = sqlite.NewEventStorage(db, log)
		if err != nil {
			return err
		}
		recorder = storage
		log.Info("Event log enabled", logger.String("path", cfg.Storage.Path))
	}

	var extra []gateway.Worker
	if cfg.Server.Enabled {
		router := api.NewRouter(cfg, storage, m, log)
		extra = append(extra, api.NewServer(router, cfg.Server, log))
	}

	orchestrator := gateway.NewOrchestrator(cfg, recorder, m, log, extra...)

	log.Info("Starting gateway",
		logger.String("source", cfg.Source.URL),
		logger.String("destination", cfg.CoT.URL),
	)

	err = orchestrator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("Shutdown requested")
		return nil
	}
	return err
}
