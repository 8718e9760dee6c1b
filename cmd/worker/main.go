package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/app"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/worker"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, log)
	if err != nil {
		log.Error("Failed to initialize application", logger.Error(err))
		os.Exit(1)
	}
	defer application.Close()

	parseWorker, err := worker.NewParseWorker(
		config.GetQueueConfig(),
		application.Service,
		application.Queue,
		log,
	)
	if err != nil {
		log.Error("Failed to create parse worker", logger.Error(err))
		os.Exit(1)
	}

	if err := parseWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	log.Info("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	parseWorker.Stop()
	log.Info("Worker stopped")
}
