package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gomarket_feedbacks/config"
	wbapp "gomarket_feedbacks/internal/wildberries/app"
	"gomarket_feedbacks/pkg/dbconnect/postgres"
	"gomarket_feedbacks/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "wb-feedback-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	log, closer, err := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Log("Started app")
	db := postgres.NewPgConnector(&cfg.Postgres, cfg.Postgres.MaxOpenConns, log)
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database: %v", err)
		}
	}()

	server := wbapp.NewWbServer(db, cfg, log)
	if err := server.Run(ctx); err != nil {
		log.Error("Server stopped: %v", err)
		return err
	}
	log.Log("Stopped app")
	return nil
}
