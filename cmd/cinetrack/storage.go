package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"cinetrack/internal/config"
	"cinetrack/internal/kv"
)

// openBackend builds the key-value store selected by cfg. The returned func
// releases whatever connection the store holds.
func openBackend(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (kv.Store, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory storage, lists will not survive a restart")
		return kv.NewMemory(), noop, nil

	case config.BackendFiles:
		store, err := kv.NewFiles(afero.NewOsFs(), cfg.Dir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file storage: %w", err)
		}
		logger.Info().Str("dir", cfg.Dir).Msg("using file storage")
		return store, noop, nil

	case config.BackendRedis:
		store, err := kv.NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis storage: %w", err)
		}
		logger.Info().Str("prefix", cfg.RedisPrefix).Msg("using redis storage")
		return store, func() { _ = store.Close() }, nil

	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		db, err := openDatabase(ctx, "sqlite", cfg.SQLitePath, logger)
		if err != nil {
			return nil, noop, err
		}
		// sqlite allows a single writer.
		db.SetMaxOpenConns(1)
		return sqlBackend(db, kv.DialectSQLite, logger)

	case config.BackendPostgres:
		db, err := openDatabase(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, noop, err
		}
		return sqlBackend(db, kv.DialectPostgres, logger)
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func sqlBackend(db *sql.DB, dialect kv.Dialect, logger zerolog.Logger) (kv.Store, func(), error) {
	if err := kv.Migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, func() {}, fmt.Errorf("migrate storage: %w", err)
	}
	logger.Info().Str("dialect", string(dialect)).Msg("using sql storage")
	return kv.NewSQL(db, dialect), func() { _ = db.Close() }, nil
}
