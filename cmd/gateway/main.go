package main

import (
	"log/slog"
	"os"

	"github.com/cryptohub/matching-engine/internal/adapter/kafka"
	"github.com/cryptohub/matching-engine/internal/adapter/redisbook"
	httpapi "github.com/cryptohub/matching-engine/internal/api/http"
	"github.com/cryptohub/matching-engine/internal/config"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}

	intake := kafka.NewIntake(cfg.Kafka.Brokers, cfg.Kafka.Topics.Orders)
	defer intake.Close()

	store := redisbook.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer store.Close()

	server := httpapi.NewServer(intake, store, log)

	log.Info("gateway started", "addr", cfg.Gateway.Addr)
	if err := server.Run(cfg.Gateway.Addr); err != nil {
		log.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}
