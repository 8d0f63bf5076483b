package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptohub/matching-engine/internal/adapter/kafka"
	"github.com/cryptohub/matching-engine/internal/adapter/pg"
	"github.com/cryptohub/matching-engine/internal/config"
	"github.com/cryptohub/matching-engine/internal/settlement"
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

	repo, err := pg.NewSettlementRepo(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer repo.Close()

	worker := settlement.NewWorker(repo, log)

	settled := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Transactions, cfg.Kafka.Groups.Settler, log)
	defer settled.Close()
	pending := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Pending, cfg.Kafka.Groups.Settler, log)
	defer pending.Close()

	errCh := make(chan error, 2)
	go func() { errCh <- settled.Run(ctx, worker.HandleSettled) }()
	go func() { errCh <- pending.Run(ctx, worker.HandlePending) }()

	log.Info("settler started", "brokers", cfg.Kafka.Brokers)
	if err := <-errCh; err != nil {
		log.Error("settler stopped", "err", err)
		os.Exit(1)
	}
}
