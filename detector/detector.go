// Package detector finds exact duplicates, perceptual duplicates and cropped
// copies among the decoded images of one chapter. Every function here is pure:
// records in, findings out, no I/O and no errors.
package detector

import (
	"panelscan/types"
)

// DefaultThreshold is the Hamming distance used when none is configured
const DefaultThreshold = 4

// Options tunes a chapter analysis
type Options struct {
	// Threshold is the largest fingerprint distance reported as a perceptual match
	Threshold int

	// SkipContainment disables the crop search
	SkipContainment bool
}

// Analyze runs the three detectors over one chapter's records in report
// priority order: exact duplicates, perceptual matches, containment.
func Analyze(records []*types.ImageRecord, opts Options) types.Findings {
	var f types.Findings
	f.Duplicates = FindExactDuplicates(records)
	f.Perceptual = FindPerceptualDuplicates(records, opts.Threshold)
	if !opts.SkipContainment {
		f.Containment = FindContainment(records, f.Duplicates)
	}
	return f
}
