package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/studiofoundry/intake/internal/api"
	"github.com/studiofoundry/intake/internal/config"
	"github.com/studiofoundry/intake/internal/db"
)

// openStore picks the persistence backend: sqlite when INTAKE_DB_PATH is
// set, otherwise the in-memory store for local development.
func openStore(cfg *config.Config, logger zerolog.Logger) (api.Store, func(), error) {
	path := cfg.DBPath
	if path == "" {
		logger.Warn().Msg("INTAKE_DB_PATH unset, using in-memory store (data is lost on restart)")
		return api.NewMemoryStore(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.RunMigrations(sqliteDB, os.Getenv("INTAKE_MIGRATIONS_DIR")); err != nil {
		_ = sqliteDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	store, err := db.NewSQLiteStore(sqliteDB, logger.With().Str("component", "sqlite").Logger())
	if err != nil {
		_ = sqliteDB.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("close sqlite db")
		}
	}
	return store, closeFn, nil
}
