package imageprocessor

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

// StandardImageLoader decodes with the Go image packages
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for every format the Go
// decoders registered above understand
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatWEBP,
				FormatTIFF,
			},
		},
	}
}

// LoadImage decodes the file and flattens it to RGB
func (l *StandardImageLoader) LoadImage(path string) (*RGBImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, newImageLoadError("failed to decode image", path, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, newImageLoadError("empty image", path, nil)
	}
	return ToRGB(img), nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %s", message, path)
	}
	return fmt.Errorf("%s: %s: %w", message, path, cause)
}
