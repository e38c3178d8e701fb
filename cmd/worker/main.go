package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/handlers"
	"github.com/illegalcall/cofoundr-waitlist/internal/worker"
	"github.com/illegalcall/cofoundr-waitlist/pkg/database"
	"github.com/illegalcall/cofoundr-waitlist/pkg/kafka"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("❌ Failed to load configuration", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// Initialize Redis
	rdb, err := database.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("❌ Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("✅ Connected to Redis")

	// Initialize mailer
	mailer, err := handlers.NewSMTPMailer(cfg.Email)
	if err != nil {
		slog.Error("❌ Failed to configure email", "error", err)
		os.Exit(1)
	}
	handler, err := handlers.NewNotificationHandler(mailer, cfg.Server.SiteURL, slog.Default())
	if err != nil {
		slog.Error("❌ Failed to load email templates", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		slog.Error("❌ Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	// Create and start worker
	w := worker.NewWorker(cfg, rdb, consumer, handler)
	if err := w.Start(ctx); err != nil {
		slog.Error("❌ Worker error", "error", err)
		os.Exit(1)
	}
}
