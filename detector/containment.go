package detector

import (
	"bytes"

	"panelscan/types"
)

// Contains reports whether the sw x sh RGB buffer small occurs byte for byte
// as an axis-aligned sub-rectangle of the bw x bh RGB buffer big, and where.
// The returned offset is in pixels. Empty patterns, patterns larger than the
// container and buffers shorter than their dimensions never match.
func Contains(big []byte, bw, bh int, small []byte, sw, sh int) (x, y int, ok bool) {
	const ch = types.Channels

	if sw <= 0 || sh <= 0 || bw <= 0 || bh <= 0 || sw > bw || sh > bh {
		return 0, 0, false
	}
	bigStride, smallStride := bw*ch, sw*ch
	if len(big) < bigStride*bh || len(small) < smallStride*sh {
		return 0, 0, false
	}

	first := small[:smallStride]
	for y0 := 0; y0 <= bh-sh; y0++ {
		row := big[y0*bigStride : (y0+1)*bigStride]

		start := 0
		for start <= bigStride-smallStride {
			hit := bytes.Index(row[start:], first)
			if hit < 0 {
				break
			}
			off := start + hit
			// resume one byte past this hit whatever the outcome
			start = off + 1

			if off%ch != 0 {
				continue
			}
			if rowsMatch(big, bigStride, small, smallStride, y0, off, sh) {
				return off / ch, y0, true
			}
		}
	}
	return 0, 0, false
}

// rowsMatch verifies pattern rows 1..sh-1 at byte offset off below row y0
func rowsMatch(big []byte, bigStride int, small []byte, smallStride, y0, off, sh int) bool {
	for r := 1; r < sh; r++ {
		b := (y0+r)*bigStride + off
		s := r * smallStride
		if !bytes.Equal(big[b:b+smallStride], small[s:s+smallStride]) {
			return false
		}
	}
	return true
}

// FindContainment reports every ordered pair (child, parent) where the child
// fits inside the parent without matching both of its dimensions and its
// pixels occur verbatim inside the parent. Pairs in the same exact-duplicate
// group are skipped.
func FindContainment(records []*types.ImageRecord, exact []types.DuplicateGroup) []types.ContainmentMatch {
	dup := newExactPairs(exact)

	var matches []types.ContainmentMatch
	for _, parent := range records {
		for _, child := range records {
			if child == parent || !fitsInside(child, parent) || dup.contains(child, parent) {
				continue
			}
			x, y, ok := Contains(
				parent.Pixels(), parent.Width(), parent.Height(),
				child.Pixels(), child.Width(), child.Height(),
			)
			if !ok {
				continue
			}
			matches = append(matches, types.ContainmentMatch{
				Child:  child.Identity(),
				Parent: parent.Identity(),
				X:      x,
				Y:      y,
			})
		}
	}
	return matches
}

// fitsInside reports whether child is a strictly smaller candidate crop of parent
func fitsInside(child, parent *types.ImageRecord) bool {
	if child.SameSize(parent) {
		return false
	}
	return child.Width() <= parent.Width() &&
		child.Height() <= parent.Height() &&
		child.Area() < parent.Area()
}
