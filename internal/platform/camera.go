package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkrupp/chatapp/internal/domain"
)

// ErrNotAFile is returned when the camera is pointed at a directory.
var ErrNotAFile = errors.New("not a regular file")

// CameraConfig holds configuration for the file-backed camera.
type CameraConfig struct {
	// MaxSize caps how much of a file is read. Default is 20MB.
	MaxSize int64 `env:"MAX_SIZE" default:"20971520"`
}

// FileCamera "takes" a photo by asking for the path of an image file.
// An empty answer cancels.
type FileCamera struct {
	prompter Prompter
	cfg      CameraConfig
}

var _ Camera = (*FileCamera)(nil)

// NewFileCamera creates a camera backed by prompter.
func NewFileCamera(prompter Prompter, cfg CameraConfig) *FileCamera {
	return &FileCamera{prompter: prompter, cfg: cfg}
}

// Capture implements Camera.
func (c *FileCamera) Capture(ctx context.Context) (domain.Capture, error) {
	answer, err := c.prompter.Prompt(ctx, "Path of the photo (empty to cancel)")
	if err != nil {
		return domain.Capture{}, fmt.Errorf("prompt: %w", err)
	}

	path := strings.TrimSpace(answer)
	if path == "" {
		return domain.Capture{}, domain.ErrCaptureCanceled
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.Capture{}, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return domain.Capture{}, fmt.Errorf("stat: %w", err)
	}

	if !info.Mode().IsRegular() {
		return domain.Capture{}, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	// One byte over the limit is enough for the image service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, c.cfg.MaxSize+1))
	if err != nil {
		return domain.Capture{}, fmt.Errorf("read: %w", err)
	}

	return domain.Capture{Filename: filepath.Base(path), Data: data}, nil
}
