package detector

import (
	"fmt"
	"math/rand"
	"testing"

	"panelscan/imageprocessor"
	"panelscan/types"
)

func fillRGB(w, h int, f func(x, y int) (byte, byte, byte)) []byte {
	pix := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			pix[i], pix[i+1], pix[i+2] = f(x, y)
		}
	}
	return pix
}

// crop cuts the w x h block at (x0, y0) out of a bw-wide RGB buffer
func crop(pix []byte, bw, x0, y0, w, h int) []byte {
	out := make([]byte, 0, w*h*3)
	for y := y0; y < y0+h; y++ {
		start := (y*bw + x0) * 3
		out = append(out, pix[start:start+w*3]...)
	}
	return out
}

func newRecord(t testing.TB, id string, w, h int, pix []byte) *types.ImageRecord {
	t.Helper()
	hasher, err := imageprocessor.NewAverageHasher(8)
	if err != nil {
		t.Fatal(err)
	}
	r, err := types.NewImageRecord(id, "png", w, h, pix, hasher)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func noise(w, h int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]byte, w*h*3)
	rng.Read(pix)
	return pix
}

func TestFindExactDuplicatesGroupsByKey(t *testing.T) {
	a := newRecord(t, "a", 4, 4, noise(4, 4, 1))
	b := newRecord(t, "b", 4, 4, noise(4, 4, 2))
	c := newRecord(t, "c", 4, 4, noise(4, 4, 1))
	d := newRecord(t, "d", 4, 4, noise(4, 4, 2))
	e := newRecord(t, "e", 4, 4, noise(4, 4, 1))
	// same bytes, different shape: not a duplicate
	f := newRecord(t, "f", 8, 2, noise(4, 4, 1))

	groups := FindExactDuplicates([]*types.ImageRecord{a, b, c, d, e, f})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2: %+v", len(groups), groups)
	}
	if got := fmt.Sprint(groups[0].Members); got != "[a c e]" {
		t.Errorf("first group = %s, want [a c e]", got)
	}
	if got := fmt.Sprint(groups[1].Members); got != "[b d]" {
		t.Errorf("second group = %s, want [b d]", got)
	}
}

func TestFindExactDuplicatesIffProperty(t *testing.T) {
	var records []*types.ImageRecord
	for i := 0; i < 12; i++ {
		w := 2 + i%2
		records = append(records, newRecord(t, fmt.Sprint(i), w, 6/w, noise(w, 6/w, int64(i%3))))
	}
	groupOf := map[string]int{}
	for gi, g := range FindExactDuplicates(records) {
		for _, m := range g.Members {
			groupOf[m] = gi + 1
		}
	}

	for _, x := range records {
		for _, y := range records {
			if x == y {
				continue
			}
			same := x.Width() == y.Width() && x.Height() == y.Height() && x.Digest() == y.Digest()
			grouped := groupOf[x.Identity()] != 0 && groupOf[x.Identity()] == groupOf[y.Identity()]
			if same != grouped {
				t.Errorf("%s/%s: same key %v, grouped %v", x.Identity(), y.Identity(), same, grouped)
			}
		}
	}
}

func TestPerceptualMatchesAreMonotonic(t *testing.T) {
	var records []*types.ImageRecord
	for i := 0; i < 8; i++ {
		records = append(records, newRecord(t, fmt.Sprint(i), 16, 16, noise(16, 16, int64(100+i))))
	}

	pairKey := func(m types.PerceptualMatch) string { return m.Left + "|" + m.Right }
	prev := map[string]bool{}
	for threshold := 0; threshold <= 64; threshold += 4 {
		cur := map[string]bool{}
		for _, m := range FindPerceptualDuplicates(records, threshold) {
			if m.Distance > threshold {
				t.Errorf("threshold %d reported distance %d", threshold, m.Distance)
			}
			cur[pairKey(m)] = true
		}
		for k := range prev {
			if !cur[k] {
				t.Errorf("pair %s lost when threshold rose to %d", k, threshold)
			}
		}
		prev = cur
	}
	if len(prev) != 8*7/2 {
		t.Errorf("threshold 64 reported %d pairs, want %d", len(prev), 8*7/2)
	}
}

func TestPerceptualIgnoresDifferentSizes(t *testing.T) {
	flat := func(w, h int) []byte {
		return fillRGB(w, h, func(x, y int) (byte, byte, byte) { return 128, 128, 128 })
	}
	a := newRecord(t, "a", 20, 20, flat(20, 20))
	b := newRecord(t, "b", 40, 40, flat(40, 40))

	if got := FindPerceptualDuplicates([]*types.ImageRecord{a, b}, 64); len(got) != 0 {
		t.Errorf("resized copies compared: %+v", got)
	}
}

func TestContainsEdgeOffsets(t *testing.T) {
	const bw, bh = 9, 7
	big := noise(bw, bh, 42)

	tests := []struct {
		name       string
		x, y, w, h int
	}{
		{"top-left corner", 0, 0, 3, 2},
		{"bottom-right corner", 6, 5, 3, 2},
		{"single row", 2, 4, 5, 1},
		{"single column", 8, 0, 1, 7},
		{"full width", 0, 3, 9, 2},
		{"full height", 4, 0, 2, 7},
		{"single pixel", 5, 6, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			small := crop(big, bw, tt.x, tt.y, tt.w, tt.h)
			x, y, ok := Contains(big, bw, bh, small, tt.w, tt.h)
			if !ok {
				t.Fatalf("crop at (%d,%d) not found", tt.x, tt.y)
			}
			if x != tt.x || y != tt.y {
				t.Errorf("found at (%d,%d), want (%d,%d)", x, y, tt.x, tt.y)
			}
		})
	}
}

func TestContainsRejects(t *testing.T) {
	big := noise(6, 5, 7)
	other := noise(3, 3, 8)

	tests := []struct {
		name  string
		small []byte
		w, h  int
	}{
		{"zero height", nil, 3, 0},
		{"zero width", nil, 0, 3},
		{"wider than container", noise(7, 1, 1), 7, 1},
		{"taller than container", noise(1, 6, 1), 1, 6},
		{"unrelated content", other, 3, 3},
		{"short buffer", other[:20], 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := Contains(big, 6, 5, tt.small, tt.w, tt.h); ok {
				t.Errorf("Contains reported a match")
			}
		})
	}
}

func TestContainsSkipsMisalignedHit(t *testing.T) {
	small := []byte{1, 2, 3, 4, 5, 6}
	// the pattern bytes first appear at byte offset 1, then aligned at pixel 3
	big := []byte{
		9, 1, 2, 3, 4, 5, 6, 7, 7, 1, 2, 3, 4, 5, 6,
	}
	x, y, ok := Contains(big, 5, 1, small, 2, 1)
	if !ok || x != 3 || y != 0 {
		t.Errorf("Contains = (%d,%d,%v), want (3,0,true)", x, y, ok)
	}

	if _, _, ok := Contains(big[:9], 3, 1, small, 2, 1); ok {
		t.Errorf("misaligned-only occurrence reported as a match")
	}
}

func TestContainsResumesAfterFailedVerification(t *testing.T) {
	// first row repeats the same pixel, so it matches at every offset of
	// container row 0 but only the last offset verifies on row 1
	const bw, bh = 6, 2
	big := fillRGB(bw, bh, func(x, y int) (byte, byte, byte) {
		if y == 0 {
			return 5, 5, 5
		}
		return byte(x), 0, 0
	})
	small := fillRGB(2, 2, func(x, y int) (byte, byte, byte) {
		if y == 0 {
			return 5, 5, 5
		}
		return byte(4 + x), 0, 0
	})

	x, y, ok := Contains(big, bw, bh, small, 2, 2)
	if !ok || x != 4 || y != 0 {
		t.Errorf("Contains = (%d,%d,%v), want (4,0,true)", x, y, ok)
	}
}

// bruteContains is the reference: every pixel offset in scan order
func bruteContains(big []byte, bw, bh int, small []byte, sw, sh int) (int, int, bool) {
	for y := 0; y <= bh-sh; y++ {
		for x := 0; x <= bw-sw; x++ {
			match := true
			for r := 0; r < sh && match; r++ {
				b := ((y+r)*bw + x) * 3
				s := r * sw * 3
				for i := 0; i < sw*3; i++ {
					if big[b+i] != small[s+i] {
						match = false
						break
					}
				}
			}
			if match {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

func TestContainsAgreesWithBruteForceOnRepetitiveContent(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for iter := 0; iter < 400; iter++ {
		bw, bh := 2+rng.Intn(10), 2+rng.Intn(8)
		big := make([]byte, bw*bh*3)
		// two-symbol alphabet: lots of repeats and cross-pixel coincidences
		for i := range big {
			big[i] = byte(rng.Intn(2))
		}
		sw, sh := 1+rng.Intn(bw), 1+rng.Intn(bh)

		var small []byte
		if rng.Intn(3) == 0 {
			small = make([]byte, sw*sh*3)
			for i := range small {
				small[i] = byte(rng.Intn(2))
			}
		} else {
			small = crop(big, bw, rng.Intn(bw-sw+1), rng.Intn(bh-sh+1), sw, sh)
		}

		wx, wy, wok := bruteContains(big, bw, bh, small, sw, sh)
		x, y, ok := Contains(big, bw, bh, small, sw, sh)
		if ok != wok || x != wx || y != wy {
			t.Fatalf("iter %d (%dx%d in %dx%d): got (%d,%d,%v), want (%d,%d,%v)",
				iter, sw, sh, bw, bh, x, y, ok, wx, wy, wok)
		}
	}
}

func TestDuplicatesNeverReportedAsContainment(t *testing.T) {
	big := noise(12, 10, 3)
	piece := crop(big, 12, 2, 3, 5, 4)

	a := newRecord(t, "a", 12, 10, big)
	a2 := newRecord(t, "a2", 12, 10, big)
	b := newRecord(t, "b", 5, 4, piece)
	b2 := newRecord(t, "b2", 5, 4, piece)
	records := []*types.ImageRecord{a, a2, b, b2}

	f := Analyze(records, Options{Threshold: DefaultThreshold})
	if len(f.Duplicates) != 2 {
		t.Fatalf("duplicates = %+v", f.Duplicates)
	}
	inGroup := map[[2]string]bool{}
	for _, g := range f.Duplicates {
		for _, m := range g.Members {
			for _, n := range g.Members {
				inGroup[[2]string{m, n}] = true
			}
		}
	}
	for _, c := range f.Containment {
		if inGroup[[2]string{c.Child, c.Parent}] {
			t.Errorf("exact duplicate pair reported as containment: %+v", c)
		}
	}
	if len(f.Containment) != 4 {
		t.Errorf("containment = %+v, want b and b2 inside a and a2", f.Containment)
	}
	for _, c := range f.Containment {
		if c.X != 2 || c.Y != 3 {
			t.Errorf("offset = (%d,%d), want (2,3)", c.X, c.Y)
		}
	}
	if len(f.Perceptual) != 0 {
		t.Errorf("exact duplicates leaked into perceptual: %+v", f.Perceptual)
	}
}

func panel(w, h int) []byte {
	return fillRGB(w, h, func(x, y int) (byte, byte, byte) {
		return byte(x*7 + y*3), byte(x ^ y), byte((x * y) >> 4)
	})
}

func TestScenarioIdenticalFiles(t *testing.T) {
	pix := panel(800, 1200)
	a := newRecord(t, "ch1/01.png", 800, 1200, pix)
	b := newRecord(t, "ch1/02.png", 800, 1200, pix)

	f := Analyze([]*types.ImageRecord{a, b}, Options{Threshold: 4})
	if len(f.Duplicates) != 1 || len(f.Duplicates[0].Members) != 2 {
		t.Fatalf("duplicates = %+v", f.Duplicates)
	}
	if len(f.Perceptual) != 0 || len(f.Containment) != 0 {
		t.Errorf("identical pair also reported as perceptual/containment: %+v", f)
	}
}

func TestScenarioTopLeftCrop(t *testing.T) {
	pix := panel(800, 1200)
	a := newRecord(t, "ch1/01.png", 800, 1200, pix)
	b := newRecord(t, "ch1/02.png", 400, 300, crop(pix, 800, 0, 0, 400, 300))

	f := Analyze([]*types.ImageRecord{a, b}, Options{Threshold: 4})
	if len(f.Duplicates) != 0 {
		t.Errorf("crop grouped as duplicate: %+v", f.Duplicates)
	}
	want := types.ContainmentMatch{Child: "ch1/02.png", Parent: "ch1/01.png", X: 0, Y: 0}
	if len(f.Containment) != 1 || f.Containment[0] != want {
		t.Errorf("containment = %+v, want [%+v]", f.Containment, want)
	}
}

func TestScenarioTextOverlay(t *testing.T) {
	const w, h = 800, 1200
	base := func(x, y int) (byte, byte, byte) {
		if y < h/2 {
			return 30, 35, 40
		}
		return 220, 210, 200
	}
	a := newRecord(t, "a.png", w, h, fillRGB(w, h, base))
	// the caption covers 120x60 pixels, 0.75% of the panel
	b := newRecord(t, "b.png", w, h, fillRGB(w, h, func(x, y int) (byte, byte, byte) {
		if x >= 300 && x < 420 && y >= 100 && y < 160 {
			return 250, 250, 250
		}
		return base(x, y)
	}))

	f := Analyze([]*types.ImageRecord{a, b}, Options{Threshold: 4})
	if a.Digest() == b.Digest() {
		t.Fatalf("overlay did not change the digest")
	}
	if len(f.Duplicates) != 0 {
		t.Errorf("overlay pair grouped as exact duplicate")
	}
	if len(f.Perceptual) != 1 || f.Perceptual[0].Left != "a.png" || f.Perceptual[0].Right != "b.png" {
		t.Errorf("perceptual = %+v", f.Perceptual)
	}
}

func TestAnalyzeSkipContainment(t *testing.T) {
	pix := panel(30, 30)
	a := newRecord(t, "a", 30, 30, pix)
	b := newRecord(t, "b", 10, 10, crop(pix, 30, 5, 5, 10, 10))

	f := Analyze([]*types.ImageRecord{a, b}, Options{SkipContainment: true})
	if len(f.Containment) != 0 {
		t.Errorf("containment ran with SkipContainment")
	}
}
