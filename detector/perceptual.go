package detector

import (
	"panelscan/types"
)

type sizeKey struct {
	width  int
	height int
}

// FindPerceptualDuplicates compares every unordered pair of records with
// identical dimensions and reports those whose fingerprints differ in at most
// threshold bits. Pairs that are exact duplicates are left to
// FindExactDuplicates. Resized copies land in different buckets and are never
// compared.
func FindPerceptualDuplicates(records []*types.ImageRecord, threshold int) []types.PerceptualMatch {
	if threshold < 0 {
		threshold = 0
	}

	buckets := make(map[sizeKey][]*types.ImageRecord)
	var order []sizeKey
	for _, r := range records {
		k := sizeKey{r.Width(), r.Height()}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var matches []types.PerceptualMatch
	for _, k := range order {
		bucket := buckets[k]
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				a, b := bucket[i], bucket[j]
				if a.Digest() == b.Digest() {
					continue
				}
				d := a.Fingerprint().Distance(b.Fingerprint())
				if d > threshold {
					continue
				}
				matches = append(matches, types.PerceptualMatch{
					Left:     a.Identity(),
					Right:    b.Identity(),
					Width:    k.width,
					Height:   k.height,
					Distance: d,
				})
			}
		}
	}
	return matches
}
