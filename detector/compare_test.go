package detector

import "testing"

func TestCompare(t *testing.T) {
	base := noise(12, 10, 5)
	a := newRecord(t, "a", 12, 10, base)
	same := newRecord(t, "same", 12, 10, base)
	cropped := newRecord(t, "crop", 5, 4, crop(base, 12, 6, 3, 5, 4))
	other := newRecord(t, "other", 12, 10, noise(12, 10, 6))

	if c := Compare(a, same, DefaultThreshold); !c.Identical || c.Distance != 0 || c.Contained != nil {
		t.Errorf("identical pair = %+v", c)
	}

	c := Compare(a, cropped, DefaultThreshold)
	if c.Identical || c.SameSize || c.Similar || c.Contained == nil {
		t.Fatalf("crop pair = %+v", c)
	}
	if m := *c.Contained; m.Child != "crop" || m.Parent != "a" || m.X != 6 || m.Y != 3 {
		t.Errorf("containment = %+v", m)
	}

	// argument order does not matter
	if c := Compare(cropped, a, DefaultThreshold); c.Contained == nil || c.Contained.Parent != "a" {
		t.Errorf("reversed crop pair = %+v", c)
	}

	if c := Compare(a, other, DefaultThreshold); c.Identical || c.Contained != nil || !c.SameSize {
		t.Errorf("unrelated pair = %+v", c)
	}
	if c := Compare(a, other, a.Fingerprint().Len()); !c.Similar {
		t.Errorf("threshold at full width should mark the pair similar: %+v", c)
	}
}
