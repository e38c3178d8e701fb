package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/cofoundr-waitlist/internal/api"
	"github.com/illegalcall/cofoundr-waitlist/internal/bio"
	"github.com/illegalcall/cofoundr-waitlist/internal/config"
	"github.com/illegalcall/cofoundr-waitlist/internal/events"
	"github.com/illegalcall/cofoundr-waitlist/internal/metrics"
	"github.com/illegalcall/cofoundr-waitlist/internal/pkg/supabase"
	"github.com/illegalcall/cofoundr-waitlist/internal/profile"
	"github.com/illegalcall/cofoundr-waitlist/internal/storage"
	"github.com/illegalcall/cofoundr-waitlist/internal/wizard"
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
	logger := slog.Default()
	ctx := context.Background()

	// Initialize Redis
	rdb, err := database.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("❌ Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	clients := &database.Clients{Redis: rdb}
	defer clients.Close()
	slog.Info("✅ Connected to Redis")

	// Initialize Supabase
	var sb *supabase.Client
	if cfg.Supabase.Configured() {
		sb, err = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key(), cfg.Database.Table, logger)
		if err != nil {
			slog.Error("❌ Failed to initialize Supabase client", "error", err)
			os.Exit(1)
		}
		if err := sb.Ping(ctx); err != nil {
			slog.Warn("⚠️ Supabase is not reachable yet", "error", err)
		} else {
			slog.Info("✅ Connected to Supabase")
		}
	} else {
		slog.Warn("⚠️ Supabase URL and Anon Key are not configured; auth is disabled")
	}

	store, err := newProfileStore(ctx, cfg, sb, clients)
	if err != nil {
		slog.Error("❌ Failed to initialize profile store", "error", err)
		os.Exit(1)
	}
	objects, avatarDir, err := newObjectStorage(cfg, sb)
	if err != nil {
		slog.Error("❌ Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	schema := profile.ProfileSchema(cfg.Storage.MaxAvatarSize)
	deps := api.Deps{
		Wizard:    wizard.New(wizard.DefaultSteps(), schema),
		Drafts:    wizard.NewDraftStore(rdb, cfg.Redis.DraftTTL, cfg.Redis.SubmitLockTTL),
		Bio:       newBioGenerator(ctx, cfg),
		Metrics:   metrics.New(),
		AvatarDir: avatarDir,
		Logger:    logger,
	}
	if sb != nil {
		deps.Auth = sb
	}
	if store != nil && objects != nil {
		deps.Profiles = profile.NewService(store, objects, schema, cfg.Storage.Bucket, logger)
	}

	// Initialize Kafka producer
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			slog.Error("❌ Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		deps.Events = events.NewKafkaPublisher(producer, cfg.Kafka.Topic, logger)
		slog.Info("✅ Connected to Kafka")
	} else {
		deps.Events = events.Noop{}
		slog.Info("Kafka disabled; events are not published")
	}

	// Create and start server
	server := api.NewServer(cfg, deps)
	go func() {
		slog.Info("🚀 Server running", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			slog.Error("❌ Server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("❌ Server shutdown failed", "error", err)
	}
}

// newProfileStore picks the row store for DATABASE_DRIVER. It returns a nil
// store when the hosted backend is selected but not configured.
func newProfileStore(ctx context.Context, cfg *config.Config, sb *supabase.Client, clients *database.Clients) (profile.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		clients.DB = db
		if err := clients.CreateProfilesTable(ctx, cfg.Database.Table); err != nil {
			return nil, err
		}
		slog.Info("✅ Connected to PostgreSQL")
		return profile.NewPostgresStore(db, cfg.Database.Table), nil
	case "supabase":
		if sb == nil {
			return nil, nil
		}
		return sb, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// newObjectStorage picks the avatar storage for STORAGE_DRIVER. The returned
// directory is served under /avatars when files are kept locally.
func newObjectStorage(cfg *config.Config, sb *supabase.Client) (storage.Storage, string, error) {
	switch cfg.Storage.Driver {
	case "local":
		local, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	case "supabase":
		if sb == nil {
			return nil, "", nil
		}
		return sb, "", nil
	}
	return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func newBioGenerator(ctx context.Context, cfg *config.Config) bio.Generator {
	gen, err := bio.NewGenAIGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.Timeout)
	switch {
	case errors.Is(err, bio.ErrDisabled):
		slog.Info("GEMINI_API_KEY not set; bio generation is disabled")
		return bio.Disabled{}
	case err != nil:
		slog.Warn("⚠️ Bio generation unavailable", "error", err)
		return bio.Disabled{}
	}
	return gen
}
