package account

import (
	"context"

	"github.com/mkrupp/chatapp/internal/domain"
)

// Record is a stored account: the public user record plus its password hash.
type Record struct {
	User         domain.User
	PasswordHash []byte
	CreatedAt    int64
}

// Repository defines the interface for account persistence.
type Repository interface {
	// CreateUser adds a new account and returns the stored record with its assigned id.
	// Emails are not unique; uniqueness is left to callers.
	CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*Record, error)

	// FindUsersByEmail returns all accounts with exactly the given email in insertion order.
	FindUsersByEmail(ctx context.Context, email string) ([]Record, error)

	// ListUsers returns every account in insertion order.
	ListUsers(ctx context.Context) ([]Record, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
