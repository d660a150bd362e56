package scanner

import (
	"errors"
	"sort"

	"panelscan/scanner/processor"
	"panelscan/types"
)

// LoadChapter decodes every path of one chapter. Records come back sorted by
// path; a file that cannot be decoded becomes a DecodeFailure and loading
// continues with the next one. observe, when set, sees every result.
func LoadChapter(paths []string, proc *processor.ImageProcessor, observe func(ProcessImageResult)) ([]*types.ImageRecord, []*types.DecodeFailure) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var (
		records  []*types.ImageRecord
		failures []*types.DecodeFailure
	)
	for _, path := range sorted {
		rec, err := proc.ProcessImage(path)
		if err != nil {
			var failure *types.DecodeFailure
			if !errors.As(err, &failure) {
				failure = &types.DecodeFailure{Path: path, Err: err}
			}
			failures = append(failures, failure)
		} else {
			records = append(records, rec)
		}
		if observe != nil {
			observe(ProcessImageResult{Path: path, Success: err == nil, Error: err})
		}
	}
	return records, failures
}
