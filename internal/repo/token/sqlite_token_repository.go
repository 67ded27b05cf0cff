package token

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/infra/sqlitedb"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteTokenRepositoryConfig holds configuration for the SQLite token repository.
type SQLiteTokenRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/chatapp.db"`
}

// SQLiteTokenRepository implements Repository using SQLite as the storage backend.
type SQLiteTokenRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteTokenRepository)(nil)

// SQLiteTokenRepositoryFactory creates a factory function that returns a new SQLiteTokenRepository.
func SQLiteTokenRepositoryFactory(cfg SQLiteTokenRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteTokenRepository(ctx, cfg)
	}
}

// NewSQLiteTokenRepository opens the database and migrates the schema if needed.
func NewSQLiteTokenRepository(ctx context.Context, cfg SQLiteTokenRepositoryConfig) (*SQLiteTokenRepository, error) {
	log := logging.GetLogger("repo.token.sqlite_token_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	schema, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}

	db, err := sqlitedb.Open(ctx, cfg.DatabasePath, schema)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	return &SQLiteTokenRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// Get implements Repository.Get using SQLite.
func (r *SQLiteTokenRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := r.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("query value: %w", err)
	}

	return value, true, nil
}

// Set implements Repository.Set using SQLite.
func (r *SQLiteTokenRepository) Set(ctx context.Context, key, value string) (err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "set value failed", "key", key, "error", err)
		} else {
			r.log.DebugContext(ctx, "value set", "key", key)
		}
	}()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("upsert value: %w", err)
	}

	return nil
}

// Remove implements Repository.Remove using SQLite.
func (r *SQLiteTokenRepository) Remove(ctx context.Context, key string) (err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "remove value failed", "key", key, "error", err)
		} else {
			r.log.DebugContext(ctx, "value removed", "key", key)
		}
	}()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete value: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteTokenRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
