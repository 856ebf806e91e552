package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
)

// NewPostgresPool creates a PostgreSQL connection pool.
//
// Connections are established lazily: a failed startup ping is logged and
// the pool is still returned, so the service can come up before the
// database does. Each request checks connectivity on its own.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MinConns = 0
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		log.Warn().Err(err).
			Str("host", poolCfg.ConnConfig.Host).
			Msg("PostgreSQL not reachable yet, will retry on demand")
		return pool, nil
	}

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Int32("max_conns", cfg.MaxDBConns).
		Dur("connect_timeout", poolCfg.ConnConfig.ConnectTimeout).
		Msg("PostgreSQL connected")

	return pool, nil
}
