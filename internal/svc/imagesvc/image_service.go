package imagesvc

import (
	"context"

	"github.com/mkrupp/chatapp/internal/domain"
)

// ImageService stores photos taken with the camera for display in the chat.
type ImageService interface {
	// Store validates the capture, stores it together with a thumbnail and
	// returns a reference to both. Storing the same bytes twice yields the same ID.
	Store(ctx context.Context, capture domain.Capture) (domain.ImageRef, error)

	// Fetch returns the stored image, scaled to width if width is non-zero.
	// Scaled copies are cached.
	Fetch(ctx context.Context, id domain.BlobID, width int) (*domain.Blob, domain.ImageRef, error)

	// Delete removes the image and every scaled copy of it.
	Delete(ctx context.Context, id domain.BlobID) error

	// MaxSize returns the maximum accepted capture size in bytes.
	MaxSize() int64
}
