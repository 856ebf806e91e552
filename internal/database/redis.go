package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
)

// NewRedisClient creates a Redis client. Like the PostgreSQL pool it does
// not require the server to be up at startup; go-redis dials on demand.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opt.DialTimeout = cfg.DBTimeout
	opt.ReadTimeout = cfg.DBTimeout
	opt.WriteTimeout = cfg.DBTimeout
	opt.MaxRetries = -1 // failures surface immediately

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", opt.Addr).Msg("Redis not reachable yet, will retry on demand")
		return rdb, nil
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}
