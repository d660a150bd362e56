package types

import (
	"fmt"
	"math/bits"
	"strings"
)

// Fingerprint is a fixed-width bit vector. Bit 0 of the vector is the first
// sample in row-major order and the most significant bit of the value, so the
// value equals the integer built by shifting samples in one at a time.
// The words are little-endian: words[0] holds the least significant 64 bits.
type Fingerprint struct {
	size  int
	words []uint64
}

// NewFingerprint packs the given bits MSB-first
func NewFingerprint(bitset []bool) Fingerprint {
	n := len(bitset)
	fp := Fingerprint{size: n, words: make([]uint64, (n+63)/64)}
	for i, set := range bitset {
		if !set {
			continue
		}
		pos := n - 1 - i
		fp.words[pos/64] |= 1 << uint(pos%64)
	}
	return fp
}

// Len returns the number of bits
func (f Fingerprint) Len() int { return f.size }

// Bit reports the i-th sample bit in row-major order
func (f Fingerprint) Bit(i int) bool {
	pos := f.size - 1 - i
	return f.words[pos/64]&(1<<uint(pos%64)) != 0
}

// Equal reports bitwise equality
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.size != other.size {
		return false
	}
	for i := range f.words {
		if f.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Distance returns the Hamming distance to other. Both fingerprints must come
// from the same grid size.
func (f Fingerprint) Distance(other Fingerprint) int {
	if f.size != other.size {
		panic(fmt.Sprintf("fingerprint width mismatch: %d vs %d bits", f.size, other.size))
	}
	d := 0
	for i := range f.words {
		d += bits.OnesCount64(f.words[i] ^ other.words[i])
	}
	return d
}

// Hex renders the value as zero-padded lowercase hex
func (f Fingerprint) Hex() string {
	digits := (f.size + 3) / 4
	var sb strings.Builder
	for i := len(f.words) - 1; i >= 0; i-- {
		sb.WriteString(fmt.Sprintf("%016x", f.words[i]))
	}
	s := sb.String()
	if len(s) > digits {
		s = s[len(s)-digits:]
	}
	return s
}

// String renders the bits as a string of 0 and 1 in sample order
func (f Fingerprint) String() string {
	var sb strings.Builder
	for i := 0; i < f.size; i++ {
		if f.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
