package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptohub/matching-engine/internal/adapter/kafka"
	"github.com/cryptohub/matching-engine/internal/broadcast"
	"github.com/cryptohub/matching-engine/internal/config"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := broadcast.NewHub()
	service := broadcast.NewService(hub, log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderBook, cfg.Kafka.Groups.Broadcaster, log)
	defer consumer.Close()

	go func() {
		if err := consumer.Run(ctx, service.HandleBookUpdate); err != nil {
			log.Error("book consumer stopped", "err", err)
			stop()
		}
	}()

	log.Info("broadcaster started", "addr", cfg.Broadcast.Addr)
	if err := service.Run(cfg.Broadcast.Addr); err != nil {
		log.Error("broadcaster stopped", "err", err)
		os.Exit(1)
	}
}
