package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"panelscan/types"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root TEXT NOT NULL,
		threshold INTEGER,
		hash_size INTEGER,
		started_at TEXT,
		finished_at TEXT
	);
	CREATE TABLE IF NOT EXISTS chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id INTEGER NOT NULL REFERENCES scans(id),
		name TEXT NOT NULL,
		path TEXT,
		loaded INTEGER,
		failed INTEGER,
		elapsed_ms INTEGER
	);
	CREATE TABLE IF NOT EXISTS decode_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chapter_id INTEGER NOT NULL REFERENCES chapters(id),
		path TEXT NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS duplicate_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chapter_id INTEGER NOT NULL REFERENCES chapters(id),
		width INTEGER,
		height INTEGER,
		digest TEXT
	);
	CREATE TABLE IF NOT EXISTS duplicate_members (
		group_id INTEGER NOT NULL REFERENCES duplicate_groups(id),
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (group_id, position)
	);
	CREATE TABLE IF NOT EXISTS perceptual_matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chapter_id INTEGER NOT NULL REFERENCES chapters(id),
		left_path TEXT NOT NULL,
		right_path TEXT NOT NULL,
		width INTEGER,
		height INTEGER,
		distance INTEGER
	);
	CREATE TABLE IF NOT EXISTS containment_matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chapter_id INTEGER NOT NULL REFERENCES chapters(id),
		child_path TEXT NOT NULL,
		parent_path TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS panel_gaps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chapter TEXT NOT NULL,
		chapter_number INTEGER,
		path TEXT,
		panel_count INTEGER,
		min_panel INTEGER,
		max_panel INTEGER,
		missing TEXT,
		duplicates TEXT,
		checked_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_chapters_scan ON chapters(scan_id);
	CREATE INDEX IF NOT EXISTS idx_groups_chapter ON duplicate_groups(chapter_id);
	CREATE INDEX IF NOT EXISTS idx_perceptual_chapter ON perceptual_matches(chapter_id);
	CREATE INDEX IF NOT EXISTS idx_containment_chapter ON containment_matches(chapter_id);`

// InitDatabase opens the database and makes sure the schema is current
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// one writer; the sink serializes chapters anyway
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	// Offsets were added after the first schema shipped
	for _, col := range []string{"x", "y"} {
		if err := ensureColumn(db, "containment_matches", col, "INTEGER"); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// ensureColumn adds column to table if it is missing
func ensureColumn(db *sql.DB, table, column, ddlType string) error {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("error checking for %s.%s column: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, ddlType)); err != nil {
		return fmt.Errorf("error adding %s.%s column: %w", table, column, err)
	}
	return nil
}

// ScanInfo describes one run
type ScanInfo struct {
	Root      string
	Threshold int
	HashSize  int
	StartedAt time.Time
}

// BeginScan records a new run and returns its id
func BeginScan(db *sql.DB, info ScanInfo) (int64, error) {
	res, err := db.Exec(`INSERT INTO scans (root, threshold, hash_size, started_at) VALUES (?, ?, ?, ?)`,
		info.Root, info.Threshold, info.HashSize, info.StartedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cannot record scan: %w", err)
	}
	return res.LastInsertId()
}

// FinishScan stamps the run's end time
func FinishScan(db *sql.DB, scanID int64, at time.Time) error {
	_, err := db.Exec(`UPDATE scans SET finished_at = ? WHERE id = ?`, at.Format(time.RFC3339), scanID)
	if err != nil {
		return fmt.Errorf("cannot finish scan %d: %w", scanID, err)
	}
	return nil
}

// ChapterRecord is everything stored for one chapter
type ChapterRecord struct {
	Summary  types.ChapterSummary
	Failures []*types.DecodeFailure
	Findings types.Findings
}

// StoreChapter writes a chapter and its findings in one transaction
func StoreChapter(db *sql.DB, scanID int64, rec ChapterRecord) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	s := rec.Summary
	res, err := tx.Exec(`INSERT INTO chapters (scan_id, name, path, loaded, failed, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		scanID, s.Chapter.Name, s.Chapter.Path, s.Loaded, s.Failed, s.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("cannot insert chapter %s: %w", s.Chapter.Name, err)
	}
	chapterID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, f := range rec.Failures {
		if _, err = tx.Exec(`INSERT INTO decode_failures (chapter_id, path, error) VALUES (?, ?, ?)`,
			chapterID, f.Path, errString(f.Err)); err != nil {
			return fmt.Errorf("cannot insert failure for %s: %w", f.Path, err)
		}
	}

	for _, g := range rec.Findings.Duplicates {
		res, err = tx.Exec(`INSERT INTO duplicate_groups (chapter_id, width, height, digest) VALUES (?, ?, ?, ?)`,
			chapterID, g.Width, g.Height, g.Digest.String())
		if err != nil {
			return fmt.Errorf("cannot insert duplicate group: %w", err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i, m := range g.Members {
			if _, err := tx.Exec(`INSERT INTO duplicate_members (group_id, position, path) VALUES (?, ?, ?)`,
				groupID, i, m); err != nil {
				return fmt.Errorf("cannot insert duplicate member %s: %w", m, err)
			}
		}
	}

	for _, m := range rec.Findings.Perceptual {
		if _, err = tx.Exec(`INSERT INTO perceptual_matches (chapter_id, left_path, right_path, width, height, distance) VALUES (?, ?, ?, ?, ?, ?)`,
			chapterID, m.Left, m.Right, m.Width, m.Height, m.Distance); err != nil {
			return fmt.Errorf("cannot insert perceptual match: %w", err)
		}
	}

	for _, m := range rec.Findings.Containment {
		if _, err = tx.Exec(`INSERT INTO containment_matches (chapter_id, child_path, parent_path, x, y) VALUES (?, ?, ?, ?, ?)`,
			chapterID, m.Child, m.Parent, m.X, m.Y); err != nil {
			return fmt.Errorf("cannot insert containment match: %w", err)
		}
	}

	return tx.Commit()
}

// PanelGap is one chapter row of the missing-panel audit
type PanelGap struct {
	Chapter       string
	ChapterNumber sql.NullInt64
	Path          string
	PanelCount    int
	MinPanel      sql.NullInt64
	MaxPanel      sql.NullInt64
	Missing       []int
	Duplicates    []int
}

// StorePanelGaps appends audit rows
func StorePanelGaps(db *sql.DB, gaps []PanelGap, at time.Time) error {
	stmt, err := db.Prepare(`INSERT INTO panel_gaps (chapter, chapter_number, path, panel_count, min_panel, max_panel, missing, duplicates, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare panel gap insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range gaps {
		if _, err := stmt.Exec(g.Chapter, g.ChapterNumber, g.Path, g.PanelCount, g.MinPanel, g.MaxPanel,
			joinInts(g.Missing), joinInts(g.Duplicates), at.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("cannot insert panel gaps for %s: %w", g.Chapter, err)
		}
	}
	return nil
}

// ScanStats contains statistics from a scan operation
type ScanStats struct {
	Chapters    int
	Images      int
	Failures    int
	Duplicates  int
	Perceptual  int
	Containment int
}

// GetScanStats aggregates the stored results of one run
func GetScanStats(db *sql.DB, scanID int64) (*ScanStats, error) {
	var stats ScanStats

	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(loaded), 0), COALESCE(SUM(failed), 0) FROM chapters WHERE scan_id = ?`,
		scanID).Scan(&stats.Chapters, &stats.Images, &stats.Failures)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapter totals: %w", err)
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"duplicate_groups", &stats.Duplicates},
		{"perceptual_matches", &stats.Perceptual},
		{"containment_matches", &stats.Containment},
	}
	for _, c := range counts {
		q := fmt.Sprintf(`SELECT COUNT(*) FROM %s t JOIN chapters c ON c.id = t.chapter_id WHERE c.scan_id = ?`, c.table)
		if err := db.QueryRow(q, scanID).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return &stats, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
