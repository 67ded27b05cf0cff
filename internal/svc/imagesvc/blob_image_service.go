package imagesvc

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/repo/blob"
	"github.com/mkrupp/chatapp/internal/util/encoding"
)

// BlobImageService implements ImageService on blob repositories:
// originals in "data", their ImageRef in "meta", scaled copies in "cache".
type BlobImageService struct {
	dataRepo  blob.Repository
	metaRepo  blob.Repository
	cacheRepo blob.Repository
	cfg       ImageConfig
	log       logging.Logger
}

var _ ImageService = (*BlobImageService)(nil)

// NewBlobImageService creates the three repositories through repoFactory.
// Returns an error if a repository cannot be created or the configured
// interpolator is unknown.
func NewBlobImageService(
	ctx context.Context,
	repoFactory blob.RepositoryFactory,
	cfg ImageConfig,
) (*BlobImageService, error) {
	if _, err := getInterpolatorByName(cfg.Interpolator); err != nil {
		return nil, fmt.Errorf("check config: %w", err)
	}

	dataRepo, err := repoFactory(ctx, "data", "bin")
	if err != nil {
		return nil, fmt.Errorf("new data repository: %w", err)
	}

	metaRepo, err := repoFactory(ctx, "meta", "json")
	if err != nil {
		return nil, fmt.Errorf("new meta repository: %w", err)
	}

	cacheRepo, err := repoFactory(ctx, "cache", "bin")
	if err != nil {
		return nil, fmt.Errorf("new cache repository: %w", err)
	}

	return &BlobImageService{
		dataRepo:  dataRepo,
		metaRepo:  metaRepo,
		cacheRepo: cacheRepo,
		cfg:       cfg,
		log:       logging.GetLogger("svc.imagesvc.blob_image_service"),
	}, nil
}

// MaxSize implements ImageService.MaxSize.
func (imageSvc *BlobImageService) MaxSize() int64 {
	return imageSvc.cfg.MaxSize
}

// Store implements ImageService.Store.
func (imageSvc *BlobImageService) Store(ctx context.Context, capture domain.Capture) (ref domain.ImageRef, err error) {
	log := imageSvc.log.With(logging.Group("image",
		"filename", capture.Filename,
		"size", len(capture.Data),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image store failed", "error", err)
		} else {
			log.DebugContext(ctx, "image stored", "id", ref.ID)
		}
	}()

	size := int64(len(capture.Data))
	if size > imageSvc.cfg.MaxSize {
		return domain.ImageRef{}, fmt.Errorf("%w: %d exceeds %d", domain.ErrImageTooLarge, size, imageSvc.cfg.MaxSize)
	}

	mimeType, err := detectType(capture.Filename, capture.Data)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("detect type: %w", err)
	}

	hash := sha256.Sum256(capture.Data)
	id := domain.BlobID(encoding.EncodeCrockfordB32LC(hash[:]))

	unlock, err := imageSvc.dataRepo.Lock(ctx, id, true)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("lock data: %w", err)
	}
	defer unlock()

	// Same content, same ID: the stored copy is reused.
	if !imageSvc.dataRepo.Exists(ctx, id) {
		if err := imageSvc.dataRepo.Store(ctx, domain.NewBlob(id, capture.Data)); err != nil {
			return domain.ImageRef{}, fmt.Errorf("store data: %w", err)
		}
	}

	thumbID, err := imageSvc.scaled(ctx, id, capture.Data, mimeType, imageSvc.cfg.ThumbnailWidth)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("thumbnail: %w", err)
	}

	ref = domain.ImageRef{
		ID:           id,
		MIMEType:     mimeType,
		Size:         size,
		URI:          imageSvc.dataRepo.URI(id),
		ThumbnailURI: imageSvc.cacheRepo.URI(thumbID),
	}

	meta, err := json.Marshal(ref)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("marshal meta: %w", err)
	}

	if err := imageSvc.metaRepo.Store(ctx, domain.NewBlob(id, meta)); err != nil {
		return domain.ImageRef{}, fmt.Errorf("store meta: %w", err)
	}

	return ref, nil
}

// Fetch implements ImageService.Fetch.
func (imageSvc *BlobImageService) Fetch(
	ctx context.Context,
	id domain.BlobID,
	width int,
) (_ *domain.Blob, ref domain.ImageRef, err error) {
	log := imageSvc.log.With(logging.Group("image", "id", id, "width", width))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "image fetched")
		}
	}()

	unlock, err := imageSvc.dataRepo.Lock(ctx, id, false)
	if err != nil {
		return nil, domain.ImageRef{}, fmt.Errorf("lock data: %w", err)
	}
	defer unlock()

	ref, err = imageSvc.fetchMeta(ctx, id)
	if err != nil {
		return nil, domain.ImageRef{}, fmt.Errorf("fetch meta: %w", err)
	}

	original, err := imageSvc.dataRepo.Fetch(ctx, id)
	if err != nil {
		return nil, domain.ImageRef{}, fmt.Errorf("fetch data: %w", err)
	}

	if width == 0 {
		return original, ref, nil
	}

	scaledID, err := imageSvc.scaled(ctx, id, original.Bytes(), ref.MIMEType, width)
	if err != nil {
		return nil, domain.ImageRef{}, fmt.Errorf("scale: %w", err)
	}

	scaled, err := imageSvc.cacheRepo.Fetch(ctx, scaledID)
	if err != nil {
		return nil, domain.ImageRef{}, fmt.Errorf("fetch cache: %w", err)
	}

	return scaled, ref, nil
}

// Delete implements ImageService.Delete.
func (imageSvc *BlobImageService) Delete(ctx context.Context, id domain.BlobID) (err error) {
	log := imageSvc.log.With(logging.Group("image", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "image deleted")
		}
	}()

	unlock, err := imageSvc.dataRepo.Lock(ctx, id, true)
	if err != nil {
		return fmt.Errorf("lock data: %w", err)
	}
	defer unlock()

	if err := imageSvc.dataRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete data: %w", err)
	}

	if err := imageSvc.metaRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete meta: %w", err)
	}

	if err := imageSvc.cacheRepo.DeleteAll(ctx, id, "_*"); err != nil {
		return fmt.Errorf("delete cache: %w", err)
	}

	return nil
}

func (imageSvc *BlobImageService) fetchMeta(ctx context.Context, id domain.BlobID) (domain.ImageRef, error) {
	metaBlob, err := imageSvc.metaRepo.Fetch(ctx, id)
	if err != nil {
		return domain.ImageRef{}, fmt.Errorf("fetch: %w", err)
	}

	var ref domain.ImageRef
	if err := json.Unmarshal(metaBlob.Bytes(), &ref); err != nil {
		return domain.ImageRef{}, fmt.Errorf("unmarshal: %w", err)
	}

	return ref, nil
}

// scaled makes sure the copy of id at width is cached and returns its cache ID.
// The caller holds the data lock of id.
func (imageSvc *BlobImageService) scaled(
	ctx context.Context,
	id domain.BlobID,
	data []byte,
	mimeType string,
	width int,
) (_ domain.BlobID, err error) {
	cacheID := domain.BlobID(fmt.Sprintf("%s_%d", id, width))

	if imageSvc.cacheRepo.Exists(ctx, cacheID) {
		return cacheID, nil
	}

	log := imageSvc.log.With(logging.Group("image",
		"id", id,
		"type", mimeType,
		logging.Group("target", "width", width),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image resize failed", "error", err)
		} else {
			log.DebugContext(ctx, "image resized")
		}
	}()

	resized, err := resizeImage(data, mimeType, width, imageSvc.cfg.Interpolator)
	if err != nil {
		return "", fmt.Errorf("resize image: %w", err)
	}

	if err := imageSvc.cacheRepo.Store(ctx, domain.NewBlob(cacheID, resized)); err != nil {
		return "", fmt.Errorf("store cache: %w", err)
	}

	return cacheID, nil
}
