package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"panelscan/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDatabase(filepath.Join(t.TempDir(), "scan.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.db")
	for i := 0; i < 2; i++ {
		db, err := InitDatabase(path)
		if err != nil {
			t.Fatalf("InitDatabase #%d: %v", i+1, err)
		}
		db.Close()
	}
}

func TestStoreChapterAndStats(t *testing.T) {
	db := openTestDB(t)
	scanID, err := BeginScan(db, ScanInfo{Root: "/panels", Threshold: 4, HashSize: 12, StartedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	rec := ChapterRecord{
		Summary: types.ChapterSummary{
			Chapter: types.Chapter{Name: "Chapter 1", Path: "/panels/Chapter 1"},
			Loaded:  4,
			Failed:  1,
			Elapsed: 1500 * time.Millisecond,
		},
		Failures: []*types.DecodeFailure{{Path: "05.png", Err: errors.New("truncated")}},
		Findings: types.Findings{
			Duplicates:  []types.DuplicateGroup{{Width: 2, Height: 2, Members: []string{"01.png", "02.png"}}},
			Perceptual:  []types.PerceptualMatch{{Left: "01.png", Right: "03.png", Width: 2, Height: 2, Distance: 3}},
			Containment: []types.ContainmentMatch{{Child: "04.png", Parent: "01.png", X: 1, Y: 0}},
		},
	}
	if err := StoreChapter(db, scanID, rec); err != nil {
		t.Fatal(err)
	}
	if err := FinishScan(db, scanID, time.Now()); err != nil {
		t.Fatal(err)
	}

	stats, err := GetScanStats(db, scanID)
	if err != nil {
		t.Fatal(err)
	}
	want := ScanStats{Chapters: 1, Images: 4, Failures: 1, Duplicates: 1, Perceptual: 1, Containment: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	var members int
	if err := db.QueryRow(`SELECT COUNT(*) FROM duplicate_members`).Scan(&members); err != nil {
		t.Fatal(err)
	}
	if members != 2 {
		t.Errorf("duplicate members = %d, want 2", members)
	}

	var x, y int
	if err := db.QueryRow(`SELECT x, y FROM containment_matches`).Scan(&x, &y); err != nil {
		t.Fatal(err)
	}
	if x != 1 || y != 0 {
		t.Errorf("offset = (%d,%d), want (1,0)", x, y)
	}
}

func TestStorePanelGaps(t *testing.T) {
	db := openTestDB(t)
	gaps := []PanelGap{{
		Chapter:    "Chapter 2",
		PanelCount: 3,
		MinPanel:   sql.NullInt64{Int64: 1, Valid: true},
		MaxPanel:   sql.NullInt64{Int64: 6, Valid: true},
		Missing:    []int{2, 4, 5},
	}}
	if err := StorePanelGaps(db, gaps, time.Now()); err != nil {
		t.Fatal(err)
	}

	var missing, dups string
	if err := db.QueryRow(`SELECT missing, duplicates FROM panel_gaps WHERE chapter = ?`, "Chapter 2").Scan(&missing, &dups); err != nil {
		t.Fatal(err)
	}
	if missing != "2, 4, 5" || dups != "" {
		t.Errorf("missing=%q duplicates=%q", missing, dups)
	}
}
