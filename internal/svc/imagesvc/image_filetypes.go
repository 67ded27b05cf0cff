package imagesvc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/mkrupp/chatapp/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
)

// imageFormat is one accepted capture format.
type imageFormat struct {
	mimeType string
	exts     []string
	magic    []string
	decode   func(io.Reader) (image.Image, error)
	encode   func(io.Writer, image.Image) error
}

//nolint:gochecknoglobals
var imageFormats = []imageFormat{
	{
		mimeType: MIMETypeJPEG,
		exts:     []string{".jpg", ".jpeg"},
		magic:    []string{"\xFF\xD8\xFF"},
		decode:   jpeg.Decode,
		encode: func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 85})
		},
	},
	{
		mimeType: MIMETypePNG,
		exts:     []string{".png"},
		magic:    []string{"\x89PNG\r\n\x1A\n"},
		decode:   png.Decode,
		encode:   png.Encode,
	},
	{
		mimeType: MIMETypeTIFF,
		exts:     []string{".tif", ".tiff"},
		magic:    []string{"II*\x00", "MM\x00*"},
		decode:   tiff.Decode,
		encode: func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		},
	},
}

func formatByMIME(mimeType string) (imageFormat, error) {
	for _, f := range imageFormats {
		if f.mimeType == mimeType {
			return f, nil
		}
	}

	return imageFormat{}, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
}

func formatByExt(ext string) (imageFormat, bool) {
	for _, f := range imageFormats {
		if slices.Contains(f.exts, ext) {
			return f, true
		}
	}

	return imageFormat{}, false
}

func sniffFormat(data []byte) (imageFormat, bool) {
	for _, f := range imageFormats {
		for _, magic := range f.magic {
			if bytes.HasPrefix(data, []byte(magic)) {
				return f, true
			}
		}
	}

	return imageFormat{}, false
}

// detectType returns the MIME type of a capture. The content decides. A
// filename extension, if present, has to name the same format.
func detectType(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrNoImageData
	}

	sniffed, ok := sniffFormat(data)
	if !ok {
		return "", domain.ErrImageTypeNotSupported
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return sniffed.mimeType, nil
	}

	named, ok := formatByExt(ext)
	switch {
	case !ok:
		return "", fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, ext)
	case named.mimeType != sniffed.mimeType:
		return "", fmt.Errorf("%w: %q is %s", domain.ErrImageTypeMismatch, ext, sniffed.mimeType)
	}

	return sniffed.mimeType, nil
}
