package report

import (
	"database/sql"
	"fmt"
	"time"

	"panelscan/database"
	"panelscan/types"
)

// SQLiteSink buffers a chapter and writes it in one transaction on EndChapter
type SQLiteSink struct {
	db      *sql.DB
	scanID  int64
	pending *database.ChapterRecord
}

// NewSQLiteSink records a new scan run in db
func NewSQLiteSink(db *sql.DB, info database.ScanInfo) (*SQLiteSink, error) {
	id, err := database.BeginScan(db, info)
	if err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db, scanID: id}, nil
}

// ScanID is the id of the run this sink writes to
func (s *SQLiteSink) ScanID() int64 { return s.scanID }

func (s *SQLiteSink) BeginChapter(ch types.Chapter) error {
	if s.pending != nil {
		return fmt.Errorf("chapter %s started before %s ended", ch.Name, s.pending.Summary.Chapter.Name)
	}
	s.pending = &database.ChapterRecord{Summary: types.ChapterSummary{Chapter: ch}}
	return nil
}

func (s *SQLiteSink) ReportFailure(f *types.DecodeFailure) error {
	s.pending.Failures = append(s.pending.Failures, f)
	return nil
}

func (s *SQLiteSink) ReportDuplicates(groups []types.DuplicateGroup) error {
	s.pending.Findings.Duplicates = groups
	return nil
}

func (s *SQLiteSink) ReportPerceptual(matches []types.PerceptualMatch) error {
	s.pending.Findings.Perceptual = matches
	return nil
}

func (s *SQLiteSink) ReportContainment(matches []types.ContainmentMatch) error {
	s.pending.Findings.Containment = matches
	return nil
}

func (s *SQLiteSink) EndChapter(sum types.ChapterSummary) error {
	rec := s.pending
	s.pending = nil
	if rec == nil {
		return fmt.Errorf("chapter %s ended without starting", sum.Chapter.Name)
	}
	rec.Summary = sum
	return database.StoreChapter(s.db, s.scanID, *rec)
}

// Close stamps the end of the run. The database stays open for the caller.
func (s *SQLiteSink) Close() error {
	return database.FinishScan(s.db, s.scanID, time.Now())
}
