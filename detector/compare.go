package detector

import "panelscan/types"

// Comparison is how two records relate under the chapter detectors
type Comparison struct {
	Identical bool // same size and digest
	SameSize  bool
	Distance  int // fingerprint Hamming distance
	// Similar is set when a chapter scan with the given threshold would
	// report the pair as a perceptual match
	Similar bool
	// Contained is set when one record is a verbatim crop of the other
	Contained *types.ContainmentMatch
}

// Compare checks a single pair in both directions
func Compare(a, b *types.ImageRecord, threshold int) Comparison {
	c := Comparison{
		SameSize: a.SameSize(b),
		Distance: a.Fingerprint().Distance(b.Fingerprint()),
	}
	c.Identical = c.SameSize && a.Digest() == b.Digest()
	if c.Identical {
		return c
	}
	if threshold < 0 {
		threshold = 0
	}
	c.Similar = c.SameSize && c.Distance <= threshold

	for _, pair := range [][2]*types.ImageRecord{{a, b}, {b, a}} {
		child, parent := pair[0], pair[1]
		if !fitsInside(child, parent) {
			continue
		}
		if x, y, ok := Contains(parent.Pixels(), parent.Width(), parent.Height(),
			child.Pixels(), child.Width(), child.Height()); ok {
			c.Contained = &types.ContainmentMatch{Child: child.Identity(), Parent: parent.Identity(), X: x, Y: y}
			break
		}
	}
	return c
}
