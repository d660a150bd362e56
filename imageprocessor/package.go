// Package imageprocessor decodes panel images into normalized RGB buffers and
// derives the perceptual fingerprint used for similarity grouping.
package imageprocessor

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into a tightly packed RGB buffer
	LoadImage(path string) (*RGBImage, error)
}
