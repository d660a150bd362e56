package imageprocessor

import (
	"fmt"

	"github.com/nfnt/resize"

	"panelscan/types"
)

// FingerprintFilter is the resampling kernel behind every fingerprint.
// Changing it changes all fingerprints, so results from runs with different
// filters are not comparable.
const FingerprintFilter = resize.Lanczos3

const (
	// DefaultHashSize is the grid size used when none is configured
	DefaultHashSize = 12

	MinHashSize = 2
	MaxHashSize = 16
)

// AverageHasher computes the average hash of an RGB buffer on a Size x Size grid
type AverageHasher struct {
	Size int
}

// NewAverageHasher returns a hasher for the given grid size
func NewAverageHasher(size int) (*AverageHasher, error) {
	if size < MinHashSize || size > MaxHashSize {
		return nil, fmt.Errorf("hash size %d out of range [%d, %d]", size, MinHashSize, MaxHashSize)
	}
	return &AverageHasher{Size: size}, nil
}

// Bits returns the fingerprint width
func (h *AverageHasher) Bits() int {
	return h.Size * h.Size
}

// Fingerprint converts the buffer to luminance, resamples it to the grid and
// sets one bit per sample that is at or above the grid mean
func (h *AverageHasher) Fingerprint(pixels []byte, width, height int) types.Fingerprint {
	samples := h.Samples(pixels, width, height)

	var sum int
	for _, v := range samples {
		sum += int(v)
	}
	mean := float64(sum) / float64(len(samples))

	bits := make([]bool, len(samples))
	for i, v := range samples {
		bits[i] = float64(v) >= mean
	}
	return types.NewFingerprint(bits)
}

// Samples returns the resampled luminance grid in row-major order
func (h *AverageHasher) Samples(pixels []byte, width, height int) []uint8 {
	gray := Luminance(pixels, width, height)
	size := uint(h.Size)
	scaled := resize.Resize(size, size, gray, FingerprintFilter)

	out := make([]uint8, 0, h.Size*h.Size)
	b := scaled.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := scaled.At(x, y).RGBA()
			out = append(out, uint8(r>>8))
		}
	}
	return out
}
