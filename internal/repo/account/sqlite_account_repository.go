package account

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"
	"time"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/infra/sqlitedb"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteAccountRepositoryConfig holds configuration for the SQLite account repository.
type SQLiteAccountRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/accountsvc.db"`
}

// SQLiteAccountRepository implements Repository using SQLite as the storage backend.
type SQLiteAccountRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAccountRepository)(nil)

// SQLiteAccountRepositoryFactory creates a factory function that returns a new SQLiteAccountRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteAccountRepositoryFactory(cfg SQLiteAccountRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteAccountRepository(ctx, cfg)
	}
}

// NewSQLiteAccountRepository creates a new SQLiteAccountRepository with the given configuration.
// It opens the database and applies pending schema migrations.
func NewSQLiteAccountRepository(
	ctx context.Context,
	cfg SQLiteAccountRepositoryConfig,
) (*SQLiteAccountRepository, error) {
	log := logging.GetLogger("repo.account.sqlite_account_repository").With(
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

	return &SQLiteAccountRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteAccountRepository) CreateUser(
	ctx context.Context,
	name, email string,
	passwordHash []byte,
) (_ *Record, err error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	log := r.log.With(logging.Group("user", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "insert user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user inserted")
		}
	}()

	now := time.Now().Unix()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		name,
		email,
		passwordHash,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &Record{
		User: domain.User{
			ID:    domain.UserID(strconv.FormatInt(id, 10)),
			Name:  name,
			Email: email,
		},
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

const selectUsers = "SELECT id, name, email, password_hash, created_at FROM users"

// FindUsersByEmail implements Repository.FindUsersByEmail using SQLite.
func (r *SQLiteAccountRepository) FindUsersByEmail(ctx context.Context, email string) ([]Record, error) {
	return r.queryUsers(ctx, selectUsers+" WHERE email = ? ORDER BY id", email)
}

// ListUsers implements Repository.ListUsers using SQLite.
func (r *SQLiteAccountRepository) ListUsers(ctx context.Context) ([]Record, error) {
	return r.queryUsers(ctx, selectUsers+" ORDER BY id")
}

func (r *SQLiteAccountRepository) queryUsers(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	records := []Record{}

	for rows.Next() {
		var (
			rec Record
			id  int64
		)

		if err := rows.Scan(&id, &rec.User.Name, &rec.User.Email, &rec.PasswordHash, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		rec.User.ID = domain.UserID(strconv.FormatInt(id, 10))
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return records, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAccountRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
