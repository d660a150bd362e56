package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Channels is the number of bytes per pixel in every normalized buffer (RGB)
const Channels = 3

var (
	// ErrInvalidDimensions is returned for non-positive widths or heights
	ErrInvalidDimensions = errors.New("image dimensions must be positive")

	// ErrBufferLength is returned when a pixel buffer does not match its dimensions
	ErrBufferLength = errors.New("pixel buffer length does not match dimensions")
)

// Digest is the SHA-256 sum of a record's decoded pixels
type Digest [sha256.Size]byte

// String returns the hex form of the digest
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Fingerprinter derives a perceptual fingerprint from an RGB buffer
type Fingerprinter interface {
	Fingerprint(pixels []byte, width, height int) Fingerprint
}

// ImageRecord holds one decoded image and everything derived from its pixels.
// Records are immutable once built by NewImageRecord.
type ImageRecord struct {
	identity    string
	format      string
	width       int
	height      int
	pixels      []byte
	digest      Digest
	fingerprint Fingerprint
}

// NewImageRecord validates the buffer against the dimensions, copies it and
// computes the digest and fingerprint eagerly.
func NewImageRecord(identity, format string, width, height int, pixels []byte, fp Fingerprinter) (*ImageRecord, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if want := width * height * Channels; len(pixels) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %dx%d",
			ErrBufferLength, len(pixels), want, width, height)
	}

	buf := make([]byte, len(pixels))
	copy(buf, pixels)

	return &ImageRecord{
		identity:    identity,
		format:      format,
		width:       width,
		height:      height,
		pixels:      buf,
		digest:      sha256.Sum256(buf),
		fingerprint: fp.Fingerprint(buf, width, height),
	}, nil
}

// Identity is the source location of the record
func (r *ImageRecord) Identity() string { return r.identity }

// Format is the lowercase file extension without the dot
func (r *ImageRecord) Format() string { return r.format }

func (r *ImageRecord) Width() int  { return r.width }
func (r *ImageRecord) Height() int { return r.height }

// Area returns width*height
func (r *ImageRecord) Area() int { return r.width * r.height }

// Stride returns the number of bytes in one row
func (r *ImageRecord) Stride() int { return r.width * Channels }

// Pixels returns the RGB buffer. Callers must treat it as read-only.
func (r *ImageRecord) Pixels() []byte { return r.pixels }

func (r *ImageRecord) Digest() Digest           { return r.digest }
func (r *ImageRecord) Fingerprint() Fingerprint { return r.fingerprint }

// SameSize reports whether both records have identical dimensions
func (r *ImageRecord) SameSize(other *ImageRecord) bool {
	return r.width == other.width && r.height == other.height
}

// DuplicateGroup lists records with identical dimensions and digest
type DuplicateGroup struct {
	Width   int
	Height  int
	Digest  Digest
	Members []string
}

// PerceptualMatch is an unordered pair of same-size records whose
// fingerprints are within the configured Hamming distance
type PerceptualMatch struct {
	Left     string
	Right    string
	Width    int
	Height   int
	Distance int
}

// ContainmentMatch records that Child occurs verbatim inside Parent at (X, Y)
type ContainmentMatch struct {
	Child  string
	Parent string
	X      int
	Y      int
}

// Findings holds one chapter's detector output in report priority order
type Findings struct {
	Duplicates  []DuplicateGroup
	Perceptual  []PerceptualMatch
	Containment []ContainmentMatch
}

// Empty reports whether no detector produced anything
func (f Findings) Empty() bool {
	return len(f.Duplicates) == 0 && len(f.Perceptual) == 0 && len(f.Containment) == 0
}

// DecodeFailure is raised when a single file cannot be turned into a record
type DecodeFailure struct {
	Path string
	Err  error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

// Chapter is one independently analyzed group of image files
type Chapter struct {
	Name  string
	Path  string
	Files []string
}

// ChapterSummary is handed to sinks when a chapter finishes
type ChapterSummary struct {
	Chapter  Chapter
	Loaded   int
	Failed   int
	Findings Findings
	Elapsed  time.Duration
}
