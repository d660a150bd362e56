// Package cvloader decodes images through OpenCV.
package cvloader

import (
	"fmt"

	"gocv.io/x/gocv"

	"panelscan/imageprocessor"
	"panelscan/types"
)

// Loader decodes with gocv.IMRead and converts OpenCV's BGR order to RGB
type Loader struct {
	imageprocessor.BaseImageLoader
}

// New returns a loader for the formats OpenCV reads out of the box
func New() *Loader {
	return &Loader{
		BaseImageLoader: imageprocessor.BaseImageLoader{
			SupportedFormats: []imageprocessor.FormatType{
				imageprocessor.FormatJPEG,
				imageprocessor.FormatPNG,
				imageprocessor.FormatBMP,
				imageprocessor.FormatWEBP,
				imageprocessor.FormatTIFF,
			},
		},
	}
}

// LoadImage reads the file as 8-bit, 3-channel colour
func (l *Loader) LoadImage(path string) (*imageprocessor.RGBImage, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("failed to load image with OpenCV: %s", path)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	w, h := rgb.Cols(), rgb.Rows()

	// ToBytes on a non-continuous Mat would carry row padding
	src := rgb
	if !rgb.IsContinuous() {
		src = rgb.Clone()
		defer src.Close()
	}
	pix := src.ToBytes()
	if len(pix) != w*h*types.Channels {
		return nil, fmt.Errorf("unexpected OpenCV buffer for %s: %d bytes for %dx%d", path, len(pix), w, h)
	}
	return &imageprocessor.RGBImage{Pix: pix, Width: w, Height: h}, nil
}

// Register installs the loader for every extension it handles
func Register(r *imageprocessor.ImageLoaderRegistry) {
	l := New()
	for _, ext := range imageprocessor.GetSupportedExtensions() {
		if l.CanLoad("x" + ext) {
			r.RegisterLoader(ext, l)
		}
	}
}
