package report

import (
	"github.com/sirupsen/logrus"

	"panelscan/logging"
	"panelscan/types"
)

// LogSink writes one structured entry per finding
type LogSink struct {
	log     *logging.Logger
	chapter string
}

func NewLogSink(l *logging.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) BeginChapter(ch types.Chapter) error {
	s.chapter = ch.Name
	s.log.WithFields(logrus.Fields{"chapter": ch.Name, "files": len(ch.Files)}).Debug("chapter started")
	return nil
}

func (s *LogSink) ReportFailure(f *types.DecodeFailure) error {
	s.log.WithFields(logrus.Fields{"chapter": s.chapter, "path": f.Path}).Warnf("decode failure: %v", f.Err)
	return nil
}

func (s *LogSink) ReportDuplicates(groups []types.DuplicateGroup) error {
	for _, g := range groups {
		s.log.WithFields(logrus.Fields{
			"chapter": s.chapter,
			"digest":  g.Digest.String(),
			"members": g.Members,
		}).Info("exact duplicate")
	}
	return nil
}

func (s *LogSink) ReportPerceptual(matches []types.PerceptualMatch) error {
	for _, m := range matches {
		s.log.WithFields(logrus.Fields{
			"chapter":  s.chapter,
			"left":     m.Left,
			"right":    m.Right,
			"distance": m.Distance,
		}).Info("perceptual duplicate")
	}
	return nil
}

func (s *LogSink) ReportContainment(matches []types.ContainmentMatch) error {
	for _, m := range matches {
		s.log.WithFields(logrus.Fields{
			"chapter": s.chapter,
			"child":   m.Child,
			"parent":  m.Parent,
			"x":       m.X,
			"y":       m.Y,
		}).Info("contained crop")
	}
	return nil
}

func (s *LogSink) EndChapter(sum types.ChapterSummary) error {
	s.log.WithFields(logrus.Fields{
		"chapter":     sum.Chapter.Name,
		"loaded":      sum.Loaded,
		"failed":      sum.Failed,
		"duplicates":  len(sum.Findings.Duplicates),
		"perceptual":  len(sum.Findings.Perceptual),
		"containment": len(sum.Findings.Containment),
		"elapsed":     sum.Elapsed,
	}).Info("chapter done")
	return nil
}

func (s *LogSink) Close() error { return nil }
