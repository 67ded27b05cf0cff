package sqlitedb_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chatapp/internal/infra/sqlitedb"
)

var testMigrations = fstest.MapFS{
	"00001_probe.sql": &fstest.MapFile{Data: []byte(`-- +goose Up
CREATE TABLE probe (id INTEGER PRIMARY KEY, v TEXT NOT NULL);

-- +goose Down
DROP TABLE probe;
`)},
}

func TestOpen_AppliesMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sqlitedb.Open(ctx, path, testMigrations)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `INSERT INTO probe(v) VALUES ('ok')`)
	require.NoError(t, err)

	var got string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT v FROM probe`).Scan(&got))
	assert.Equal(t, "ok", got)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sqlitedb.Open(ctx, path, testMigrations)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlitedb.Migrate(ctx, db, testMigrations))
}

func TestOpen_BadPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "dir", "app.db")

	_, err := sqlitedb.Open(context.Background(), path, testMigrations)
	require.Error(t, err)
}
