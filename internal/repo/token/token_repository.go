package token

import "context"

// Repository is the persistent key/value store holding the session token.
type Repository interface {
	// Get returns the value stored under key and true, or "" and false if the key is not set.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a key that is not set is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
