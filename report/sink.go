// Package report delivers chapter findings to sinks in a fixed order:
// decode failures, exact duplicates, perceptual matches, containment.
package report

import (
	"errors"

	"panelscan/types"
)

// Sink receives the findings of each chapter. A chapter is always bracketed
// by BeginChapter and EndChapter; EndChapter flushes whatever the sink buffers.
type Sink interface {
	BeginChapter(ch types.Chapter) error
	ReportFailure(f *types.DecodeFailure) error
	ReportDuplicates(groups []types.DuplicateGroup) error
	ReportPerceptual(matches []types.PerceptualMatch) error
	ReportContainment(matches []types.ContainmentMatch) error
	EndChapter(summary types.ChapterSummary) error
	Close() error
}

// Deliver hands one chapter to the sink, highest-confidence findings first
func Deliver(s Sink, summary types.ChapterSummary, failures []*types.DecodeFailure) error {
	if err := s.BeginChapter(summary.Chapter); err != nil {
		return err
	}
	for _, f := range failures {
		if err := s.ReportFailure(f); err != nil {
			return err
		}
	}
	f := summary.Findings
	if err := s.ReportDuplicates(f.Duplicates); err != nil {
		return err
	}
	if err := s.ReportPerceptual(f.Perceptual); err != nil {
		return err
	}
	if err := s.ReportContainment(f.Containment); err != nil {
		return err
	}
	return s.EndChapter(summary)
}

// MultiSink fans every call out to all sinks and joins their errors
type MultiSink []Sink

func (m MultiSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) BeginChapter(ch types.Chapter) error {
	return m.each(func(s Sink) error { return s.BeginChapter(ch) })
}

func (m MultiSink) ReportFailure(f *types.DecodeFailure) error {
	return m.each(func(s Sink) error { return s.ReportFailure(f) })
}

func (m MultiSink) ReportDuplicates(groups []types.DuplicateGroup) error {
	return m.each(func(s Sink) error { return s.ReportDuplicates(groups) })
}

func (m MultiSink) ReportPerceptual(matches []types.PerceptualMatch) error {
	return m.each(func(s Sink) error { return s.ReportPerceptual(matches) })
}

func (m MultiSink) ReportContainment(matches []types.ContainmentMatch) error {
	return m.each(func(s Sink) error { return s.ReportContainment(matches) })
}

func (m MultiSink) EndChapter(summary types.ChapterSummary) error {
	return m.each(func(s Sink) error { return s.EndChapter(summary) })
}

func (m MultiSink) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}
