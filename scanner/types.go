package scanner

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"panelscan/detector"
	"panelscan/imageprocessor"
	"panelscan/logging"
	"panelscan/report"
	"panelscan/scanner/processor"
	"panelscan/types"
)

// Decoder turns a file into an RGB buffer
type Decoder = processor.Decoder

// Fingerprinter computes the perceptual fingerprint of an RGB buffer
type Fingerprinter = types.Fingerprinter

// OrientationChecker lists files whose stored pixels are displayed rotated
type OrientationChecker interface {
	RotatedFiles(paths []string) []imageprocessor.Rotated
}

// ScanOptions defines the options for scanning
type ScanOptions struct {
	Root       string
	Extensions []string // restricts discovery when non-empty
	Detector   detector.Options
	MaxWorkers int // chapters analyzed at once
	Decoder    Decoder
	Hasher     Fingerprinter
	Sink       report.Sink
	Log        *logging.Logger
	Progress   io.Writer // nil disables the progress bar
	Exif       OrientationChecker
}

// ProcessImageResult holds the result of processing an image
type ProcessImageResult struct {
	Chapter string
	Path    string
	Success bool
	Error   error
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles int
	chapters   int
}

// ProgressTracker tracks progress of the scan operation
type ProgressTracker struct {
	processed  int
	errors     int
	chapters   int
	totalFiles int
	bar        *progressbar.ProgressBar
	mu         sync.Mutex
	started    time.Time
}
