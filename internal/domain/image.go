package domain

import "errors"

var (
	ErrImageTypeNotSupported = errors.New("image type not supported")
	ErrImageTypeMismatch     = errors.New("image ext does not match content type")
	ErrImageTooLarge         = errors.New("image too large")
	ErrNoImageData           = errors.New("no image data")
)

// Capture is a photo handed over by the camera.
type Capture struct {
	Filename string // Name suggested by the camera, used for type detection
	Data     []byte // Encoded image
}

// ImageRef points at a stored captured image and its thumbnail.
type ImageRef struct {
	ID           BlobID `json:"id"`           // Content hash (Crockford Base32)
	MIMEType     string `json:"mimeType"`     // Detected MIME type
	Size         int64  `json:"size"`         // Size of the original in bytes
	URI          string `json:"uri"`          // Location of the original
	ThumbnailURI string `json:"thumbnailUri"` // Location of the scaled-down copy
}
