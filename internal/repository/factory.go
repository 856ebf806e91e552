package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/database"
	"github.com/stemsi/student-records/internal/model"
)

// demoStudent is the record an empty demo store starts with.
var demoStudent = model.StudentFields{Name: "John Doe", Age: 20, Gender: "M", Midterm: 85.5, Final: 88.0}

// NewStudentStore builds the one store selected by cfg.StorageBackend.
// Selection happens once; the returned store is used for the whole
// process lifetime with no fallback to another backend.
func NewStudentStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (StudentStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		store := NewMemoryStudentStore()
		if cfg.SeedDemo {
			if _, err := store.Create(ctx, demoStudent); err != nil {
				return nil, fmt.Errorf("seed demo student: %w", err)
			}
		}
		log.Info().Bool("seeded", cfg.SeedDemo).Msg("Using in-memory student store (demo mode)")
		return store, nil

	case config.BackendSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStudentStore(db), nil

	case config.BackendPostgres:
		if cfg.AutoMigrate {
			if err := database.MigratePostgresUp(cfg.DatabaseURL, log); err != nil {
				log.Warn().Err(err).Msg("PostgreSQL migrations not applied")
			}
		}
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewPostgresStudentStore(pool), nil

	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return NewRedisStudentStore(rdb, cfg.RedisKeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %s, %s, %s or %s)",
			cfg.StorageBackend, config.BackendMemory, config.BackendSQLite, config.BackendPostgres, config.BackendRedis)
	}
}
