package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"panelscan/types"
)

// TextSink writes a human-readable review list
type TextSink struct {
	w       *bufio.Writer
	chapter string
	n       int
}

// NewTextSink writes to w; output is flushed at the end of every chapter
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

func (t *TextSink) BeginChapter(ch types.Chapter) error {
	t.chapter = ch.Path
	t.n = 0
	_, err := fmt.Fprintf(t.w, "\n%s\n", ch.Name)
	return err
}

// name shortens identities to paths relative to the chapter
func (t *TextSink) name(path string) string {
	if rel, err := filepath.Rel(t.chapter, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (t *TextSink) ReportFailure(f *types.DecodeFailure) error {
	_, err := fmt.Fprintf(t.w, "  ! unreadable %s: %v\n", t.name(f.Path), f.Err)
	return err
}

func (t *TextSink) ReportDuplicates(groups []types.DuplicateGroup) error {
	for _, g := range groups {
		t.n++
		names := make([]string, len(g.Members))
		for i, m := range g.Members {
			names[i] = t.name(m)
		}
		if _, err := fmt.Fprintf(t.w, "  %d. identical %dx%d: %s\n", t.n, g.Width, g.Height, strings.Join(names, " = ")); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextSink) ReportPerceptual(matches []types.PerceptualMatch) error {
	for _, m := range matches {
		t.n++
		if _, err := fmt.Fprintf(t.w, "  %d. %s <-> %s (dist=%d)\n", t.n, t.name(m.Left), t.name(m.Right), m.Distance); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextSink) ReportContainment(matches []types.ContainmentMatch) error {
	for _, m := range matches {
		t.n++
		if _, err := fmt.Fprintf(t.w, "  %d. %s is cropped from %s at (%d,%d)\n", t.n, t.name(m.Child), t.name(m.Parent), m.X, m.Y); err != nil {
			return err
		}
	}
	return nil
}

func (t *TextSink) EndChapter(s types.ChapterSummary) error {
	if s.Findings.Empty() {
		fmt.Fprintln(t.w, "  · No redundant panels detected.")
	}
	fmt.Fprintf(t.w, "  · %d image(s) loaded, %d failed, %d finding(s) in %v\n",
		s.Loaded, s.Failed, t.n, s.Elapsed.Round(time.Millisecond))
	return t.w.Flush()
}

func (t *TextSink) Close() error {
	return t.w.Flush()
}
