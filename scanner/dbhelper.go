package scanner

import (
	"database/sql"
	"fmt"
	"io"

	"panelscan/database"
)

// PrintScanStats prints the totals stored for one scan run
func PrintScanStats(w io.Writer, db *sql.DB, scanID int64) error {
	stats, err := database.GetScanStats(db, scanID)
	if err != nil {
		return fmt.Errorf("cannot read scan stats: %w", err)
	}

	fmt.Fprintf(w, "Stored scan #%d:\n", scanID)
	fmt.Fprintf(w, "  Chapters:              %d\n", stats.Chapters)
	fmt.Fprintf(w, "  Images:                %d\n", stats.Images)
	fmt.Fprintf(w, "  Unreadable files:      %d\n", stats.Failures)
	fmt.Fprintf(w, "  Duplicate groups:      %d\n", stats.Duplicates)
	fmt.Fprintf(w, "  Perceptual matches:    %d\n", stats.Perceptual)
	fmt.Fprintf(w, "  Containment matches:   %d\n", stats.Containment)
	return nil
}
