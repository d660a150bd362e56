package imageprocessor

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/barasher/go-exiftool"
)

// Orientation values other than 1 mean the viewer rotates or mirrors the
// stored pixels, which containment matching never does
const orientationNormal = 1

// ExifInspector reads EXIF orientation through a long-lived exiftool process
type ExifInspector struct {
	et *exiftool.Exiftool
}

// Rotated describes a file whose stored pixels are shown transformed
type Rotated struct {
	Path        string
	Orientation int
}

// checkExiftoolCommandAvailable reports whether the exiftool binary is on PATH
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}

// NewExifInspector starts exiftool. It fails when the binary is missing.
func NewExifInspector() (*ExifInspector, error) {
	if !checkExiftoolCommandAvailable() {
		return nil, fmt.Errorf("exiftool not found in PATH")
	}
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}
	return &ExifInspector{et: et}, nil
}

// Close stops the exiftool process
func (e *ExifInspector) Close() error {
	return e.et.Close()
}

// RotatedFiles returns the files whose Orientation tag is present and not 1.
// Files exiftool cannot read are skipped; decoding will report them.
func (e *ExifInspector) RotatedFiles(paths []string) []Rotated {
	if len(paths) == 0 {
		return nil
	}

	var out []Rotated
	for _, fm := range e.et.ExtractMetadata(paths...) {
		if fm.Err != nil {
			continue
		}
		o, ok := orientationValue(fm.Fields["Orientation"])
		if ok && o != orientationNormal {
			out = append(out, Rotated{Path: fm.File, Orientation: o})
		}
	}
	return out
}

func orientationValue(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}
