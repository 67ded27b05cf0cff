package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrInvalidWidth is returned for a non-positive target width.
	ErrInvalidWidth = errors.New("invalid width")
)

// getInterpolatorByName maps the IMAGE_INTERPOLATOR setting to a scaler.
func getInterpolatorByName(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearestneighbor", "nearest":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}
}

// resizeImage scales an encoded image to width, keeping the aspect ratio, and
// re-encodes it in its own format. Images narrower than width are not enlarged.
func resizeImage(data []byte, mimeType string, width int, interpolator string) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	interpol, err := getInterpolatorByName(interpolator)
	if err != nil {
		return nil, fmt.Errorf("get interpolator: %w", err)
	}

	format, err := formatByMIME(mimeType)
	if err != nil {
		return nil, err
	}

	original, err := format.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	src := original.Bounds()
	width = min(width, src.Dx())
	height := max(1, src.Dy()*width/max(1, src.Dx()))

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, src, draw.Src, nil)

	var buf bytes.Buffer
	if err := format.encode(&buf, bitmap); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), nil
}
