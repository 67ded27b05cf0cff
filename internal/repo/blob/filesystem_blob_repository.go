package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
)

// ErrBytesWrittenMismatch is returned when a stored file does not have the size of its blob.
var ErrBytesWrittenMismatch = errors.New("bytes written mismatch")

const (
	shardLength = 2 // 32^2 = 1024 directories per level
	shardDepth  = 2
	idMinLength = shardLength * shardDepth
)

// FileSystemBlobRepositoryConfig holds configuration for the filesystem-based blob repository.
type FileSystemBlobRepositoryConfig struct {
	// Basedir is the root directory for blob storage
	Basedir string `env:"BASEDIR" default:"var/storage/blob"`
}

// FileSystemBlobRepositoryFactory creates a factory function that returns a new FileSystemBlobRepository.
// The factory function implements the RepositoryFactory type.
func FileSystemBlobRepositoryFactory(cfg FileSystemBlobRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context, subdir, ext string) (Repository, error) {
		return NewFileSystemBlobRepository(ctx, subdir, ext, cfg)
	}
}

// FileSystemBlobRepository implements Repository on the local filesystem.
// Blobs live under basedir/subdir, sharded by the leading characters of their ID.
type FileSystemBlobRepository struct {
	root string
	ext  string
	log  logging.Logger
}

var _ Repository = (*FileSystemBlobRepository)(nil)

// NewFileSystemBlobRepository creates the repository directory if needed.
func NewFileSystemBlobRepository(
	ctx context.Context,
	subdir string,
	ext string,
	cfg FileSystemBlobRepositoryConfig,
) (_ *FileSystemBlobRepository, err error) {
	root, err := filepath.Abs(filepath.Join(cfg.Basedir, subdir))
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}

	log := logging.GetLogger("repo.blob.filesystem_blob_repository").With(
		logging.Group("repo", "root", root, "ext", ext),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			log.DebugContext(ctx, "storage ready")
		}
	}()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return &FileSystemBlobRepository{root: root, ext: ext, log: log}, nil
}

// GetFilename returns the full filesystem path for a blob with the given ID.
func (r *FileSystemBlobRepository) GetFilename(id domain.BlobID) string {
	return r.basename(id) + "." + r.ext
}

// URI implements Repository.URI with a file:// URI.
func (r *FileSystemBlobRepository) URI(id domain.BlobID) string {
	//nolint:exhaustruct
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(r.GetFilename(id))}

	return u.String()
}

// Lock implements Repository.Lock with flock(2) on a sidecar lock file.
func (r *FileSystemBlobRepository) Lock(ctx context.Context, id domain.BlobID, exclusive bool) (func(), error) {
	mode := syscall.LOCK_SH
	if exclusive {
		mode = syscall.LOCK_EX
	}

	release, err := r.flock(ctx, r.GetFilename(id)+".lock", mode)
	if err != nil {
		return nil, fmt.Errorf("flock: %w", err)
	}

	return release, nil
}

// Exists implements Repository.Exists.
func (r *FileSystemBlobRepository) Exists(_ context.Context, id domain.BlobID) bool {
	_, err := os.Stat(r.GetFilename(id))

	return err == nil
}

// Store implements Repository.Store. The blob is written to a temporary file
// and renamed into place, so readers never see a partial blob.
func (r *FileSystemBlobRepository) Store(ctx context.Context, blob *domain.Blob) (err error) {
	filename := r.GetFilename(blob.ID)
	log := r.log.With(logging.Group("blob", "id", blob.ID, "size", blob.Size()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "blob store failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob stored")
		}
	}()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), ".store-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	n, err := blob.WriteTo(tmp)
	if err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if n != blob.Size() {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, blob.Size(), n)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// Fetch implements Repository.Fetch.
func (r *FileSystemBlobRepository) Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error) {
	body, err := os.ReadFile(r.GetFilename(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrBlobNotFound, err)
		}

		r.log.DebugContext(ctx, "blob fetch failed", "id", id, "error", err)

		return nil, fmt.Errorf("read file: %w", err)
	}

	return domain.NewBlob(id, body), nil
}

// Delete implements Repository.Delete.
func (r *FileSystemBlobRepository) Delete(ctx context.Context, id domain.BlobID) error {
	if err := os.Remove(r.GetFilename(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrBlobNotFound, err)
		}

		return fmt.Errorf("remove: %w", err)
	}

	r.log.DebugContext(ctx, "blob deleted", "id", id)

	return nil
}

// DeleteAll implements Repository.DeleteAll. Missing files are skipped.
func (r *FileSystemBlobRepository) DeleteAll(ctx context.Context, id domain.BlobID, pattern string) error {
	filenames, err := filepath.Glob(r.basename(id) + pattern + "." + r.ext)
	if err != nil {
		return fmt.Errorf("glob: %w", err)
	}

	for _, filename := range filenames {
		if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove: %w", err)
		}
	}

	r.log.DebugContext(ctx, "blobs deleted", "id", id, "pattern", pattern, "count", len(filenames))

	return nil
}

// basename maps an ID to its path without extension, e.g.
// root/ab/cd/abcd0123... for ID "abcd0123...".
// Derived IDs ("<id>_<suffix>") shard like their origin.
func (r *FileSystemBlobRepository) basename(id domain.BlobID) string {
	name := strings.ReplaceAll(string(id), "/", "")
	if len(name) < idMinLength {
		name = strings.Repeat("0", idMinLength-len(name)) + name
	}

	parts := []string{r.root}
	for i := range shardDepth {
		parts = append(parts, name[i*shardLength:(i+1)*shardLength])
	}

	return filepath.Join(append(parts, name)...)
}

func (r *FileSystemBlobRepository) flock(ctx context.Context, lockfile string, mode int) (release func(), err error) {
	log := r.log.With(logging.Group("blob", "lockfile", lockfile))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "lock failed", "error", err)
		} else {
			log.DebugContext(ctx, "lock acquired")
		}
	}()

	if err := os.MkdirAll(filepath.Dir(lockfile), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.OpenFile(lockfile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), mode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()

		log.DebugContext(ctx, "lock released")
	}, nil
}
