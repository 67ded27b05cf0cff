package imagesvc

// ImageConfig holds configuration parameters for the image service.
type ImageConfig struct {
	// MaxSize is the largest accepted capture in bytes. Default is 20MB.
	MaxSize int64 `env:"MAX_SIZE" default:"20971520"`

	// ThumbnailWidth is the width of the preview stored next to every capture.
	ThumbnailWidth int `env:"THUMBNAIL_WIDTH" default:"200"`

	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
}
