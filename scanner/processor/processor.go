package processor

import (
	"fmt"
	"runtime/debug"

	"panelscan/imageprocessor"
	"panelscan/logging"
	"panelscan/types"
)

// Decoder is the decode capability the processor needs
type Decoder interface {
	CanLoadFile(path string) bool
	LoadImage(path string) (*imageprocessor.RGBImage, error)
}

// ImageProcessor turns one file into an ImageRecord
type ImageProcessor struct {
	decoder Decoder
	hasher  types.Fingerprinter
	log     *logging.Logger
}

// NewImageProcessor creates a new ImageProcessor
func NewImageProcessor(decoder Decoder, hasher types.Fingerprinter, log *logging.Logger) *ImageProcessor {
	if log == nil {
		log = logging.Discard()
	}
	return &ImageProcessor{decoder: decoder, hasher: hasher, log: log}
}

// ProcessImage decodes the file and builds its record. Any failure, including
// a panic inside a decoder, comes back as a *types.DecodeFailure.
func (p *ImageProcessor) ProcessImage(path string) (rec *types.ImageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Panic during image loading: %v, file: %s\nStack trace: %s", r, path, debug.Stack())
			rec = nil
			err = &types.DecodeFailure{Path: path, Err: fmt.Errorf("panic during image loading: %v", r)}
		}
	}()

	img, err := p.decoder.LoadImage(path)
	if err != nil {
		return nil, &types.DecodeFailure{Path: path, Err: err}
	}

	rec, err = types.NewImageRecord(path, imageprocessor.FormatLabel(path), img.Width, img.Height, img.Pix, p.hasher)
	if err != nil {
		return nil, &types.DecodeFailure{Path: path, Err: err}
	}

	if p.log.DebugEnabled() {
		p.log.Debugf("Loaded %s (%s) %dx%d digest=%s fingerprint=%s",
			path, rec.Format(), rec.Width(), rec.Height(), rec.Digest(), rec.Fingerprint().Hex())
	}
	return rec, nil
}
