package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/papertext/backend/internal/queue"
	"github.com/OFFIS-RIT/papertext/backend/internal/util"
	"github.com/OFFIS-RIT/papertext/backend/internal/wiring"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger"
	"github.com/OFFIS-RIT/papertext/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	deps, err := wiring.Open(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "err", err)
	}
	defer deps.Close(context.Background())

	if err := deps.Bootstrap(ctx); err != nil {
		logger.Fatal("Failed to bootstrap graph", "err", err)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// Separate consumer channel with prefetch=1 so documents are ingested one
	// at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.IngestQueue,
		fmt.Sprintf("%s_consumer", queue.IngestQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.IngestQueue)
				return
			}

			start := time.Now()
			processingErr := queue.HandleIngestDelivery(ctx, deps.Registry, ch, msg)
			logger.Info("Message handled", "queue", queue.IngestQueue, "duration", time.Since(start), "failed", processingErr != nil)
		}
	}
}
