package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return redisClient, nil
}

// NewPostgres connects to PostgreSQL.
func NewPostgres(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (c *Clients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Redis != nil {
		c.Redis.Close()
	}
}

// ProfilesTableSchema returns the DDL for the profile table.
func ProfilesTableSchema(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		linkedin_url TEXT NOT NULL DEFAULT '',
		website_url TEXT NOT NULL DEFAULT '',
		primary_role_seeking TEXT NOT NULL DEFAULT '',
		years_experience INTEGER,
		core_skills TEXT[] NOT NULL DEFAULT '{}',
		industry_experience TEXT[] NOT NULL DEFAULT '{}',
		has_idea BOOLEAN NOT NULL DEFAULT FALSE,
		idea_description TEXT NOT NULL DEFAULT '',
		idea_stage TEXT NOT NULL DEFAULT '',
		cofounder_looking_for_roles TEXT[] NOT NULL DEFAULT '{}',
		cofounder_looking_for_skills TEXT[] NOT NULL DEFAULT '{}',
		cofounder_personality_traits TEXT NOT NULL DEFAULT '',
		cofounder_industry_background TEXT NOT NULL DEFAULT '',
		commitment_level TEXT NOT NULL DEFAULT '',
		equity_split_expectation TEXT NOT NULL DEFAULT '',
		willing_to_relocate BOOLEAN NOT NULL DEFAULT FALSE,
		preferred_cofounder_location TEXT NOT NULL DEFAULT '',
		interests TEXT[] NOT NULL DEFAULT '{}',
		avatar_url TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`, pq.QuoteIdentifier(table))
}

func (c *Clients) CreateProfilesTable(ctx context.Context, table string) error {
	if _, err := c.DB.ExecContext(ctx, ProfilesTableSchema(table)); err != nil {
		return fmt.Errorf("failed to create %s table: %w", table, err)
	}

	slog.Info("✅ Profiles table is ready!", "table", table)
	return nil
}
