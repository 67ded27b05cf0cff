// Package sqlitedb opens SQLite databases and brings their schema up to date
// with embedded goose migrations.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/chatapp/internal/infra/logging"
)

// Open opens the SQLite database at path and applies all pending migrations
// found at the root of migrations. The caller owns the returned handle.
func Open(ctx context.Context, path string, migrations fs.FS) (_ *sql.DB, err error) {
	log := logging.GetLogger("infra.sqlitedb").With(logging.Group("db", "path", path))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "open db failed", "error", err)
		} else {
			log.DebugContext(ctx, "db ready")
		}
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := Migrate(ctx, db, migrations); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

// Migrate applies all pending migrations. Running it on an up-to-date database is a no-op.
func Migrate(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	log := logging.GetLogger("infra.sqlitedb")

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("new migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	for _, res := range results {
		log.DebugContext(ctx, "migration applied",
			"version", res.Source.Version,
			"duration", res.Duration,
		)
	}

	return nil
}
