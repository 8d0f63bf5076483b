package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptohub/matching-engine/internal/adapter/kafka"
	"github.com/cryptohub/matching-engine/internal/adapter/redisbook"
	"github.com/cryptohub/matching-engine/internal/adapter/webhook"
	"github.com/cryptohub/matching-engine/internal/config"
	"github.com/cryptohub/matching-engine/internal/core"
	"github.com/cryptohub/matching-engine/internal/domain"
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

	store := redisbook.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer store.Close()

	notifier := webhook.NewDispatcher(cfg.Webhook.MaxInflight, log)
	defer notifier.Close()

	publisher := kafka.NewPublisher(cfg.Kafka.Brokers, kafka.Topics{
		Pending:      cfg.Kafka.Topics.Pending,
		Transactions: cfg.Kafka.Topics.Transactions,
		OrderBook:    cfg.Kafka.Topics.OrderBook,
	})
	defer publisher.Close()

	engine := core.NewEngine(store, notifier, publisher, log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Orders, cfg.Kafka.Groups.Matcher, log)
	defer consumer.Close()

	log.Info("matcher started", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topics.Orders)
	err = consumer.Run(ctx, func(ctx context.Context, _, value []byte) error {
		var order domain.Order
		if err := json.Unmarshal(value, &order); err != nil {
			log.Error("dropping undecodable order message", "err", err)
			return nil
		}
		_, err := engine.Process(ctx, &order)
		return err
	})
	if err != nil {
		log.Error("matcher stopped", "err", err)
		os.Exit(1)
	}
}
