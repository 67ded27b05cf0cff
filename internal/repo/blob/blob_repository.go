// Package blob stores opaque byte blobs addressed by domain.BlobID. The image
// service keeps captured photos, their metadata and scaled copies here.
package blob

import (
	"context"
	"errors"

	"github.com/mkrupp/chatapp/internal/domain"
)

var ErrBlobNotFound = errors.New("blob not found")

// Repository is a flat namespace of blobs with advisory per-blob locks.
type Repository interface {
	// Lock takes a shared or exclusive lock on id and returns its release func.
	// The blob itself need not exist.
	Lock(ctx context.Context, id domain.BlobID, exclusive bool) (func(), error)

	Exists(ctx context.Context, id domain.BlobID) bool

	// Store writes blob atomically, replacing an earlier blob with the same ID.
	Store(ctx context.Context, blob *domain.Blob) error

	// Fetch and Delete return ErrBlobNotFound for unknown ids.
	Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error)
	Delete(ctx context.Context, id domain.BlobID) error

	// DeleteAll removes every blob named id+pattern, where pattern is a glob
	// suffix such as "_*". Nothing matching is not an error.
	DeleteAll(ctx context.Context, id domain.BlobID, pattern string) error

	// URI locates the blob for readers outside the process (file:// for the
	// filesystem repository).
	URI(id domain.BlobID) string
}

// RepositoryFactory opens the repository kept under subdir, storing blobs
// with the file extension ext.
type RepositoryFactory func(ctx context.Context, subdir string, ext string) (Repository, error)
