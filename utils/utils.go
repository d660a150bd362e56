package utils

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"panelscan/database"
	"panelscan/logging"
)

// GetDefaultDatabasePath returns the default path for the database file
func GetDefaultDatabasePath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "panelscan.db"
	}

	// Return the default database path in the same directory
	return filepath.Join(filepath.Dir(exePath), "panelscan.db")
}

// CheckFolder verifies that path exists and is a directory
func CheckFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("folder path does not exist: %s", path)
		}
		return fmt.Errorf("cannot access folder path: %s (%w)", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// InitDatabaseWithRetry opens the database, retrying while another process
// holds the file
func InitDatabaseWithRetry(dbPath string, log *logging.Logger) (*sql.DB, error) {
	const maxRetries = 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := database.InitDatabase(dbPath)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i < maxRetries-1 {
			log.Warnf("Error initializing database (attempt %d/%d): %v - retrying...", i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	return nil, fmt.Errorf("error initializing database after %d attempts: %w", maxRetries, lastErr)
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s scan    [--root=PATH] [--threshold=N] [--hash-size=N] [--decoder=std|opencv]\n", name)
	fmt.Fprintf(w, "            [--db[=PATH]] [--workers=N] [--ext=LIST] [--exif] [--no-containment] [--debug] [--logfile=PATH]\n")
	fmt.Fprintf(w, "  %s missing [--root=PATH] [--db[=PATH]]\n", name)
	fmt.Fprintf(w, "  %s compare --img1=PATH --img2=PATH [--hash-size=N] [--threshold=N]\n", name)
	fmt.Fprintf(w, "\nParameters:\n")
	fmt.Fprintf(w, "  --root           : Folder whose subfolders are chapters (default: panels)\n")
	fmt.Fprintf(w, "  --threshold      : Largest fingerprint distance reported as similar (default: 4)\n")
	fmt.Fprintf(w, "  --hash-size      : Fingerprint grid size, 2-16 (default: 12)\n")
	fmt.Fprintf(w, "  --decoder        : Image decoder backend, std or opencv (default: std)\n")
	fmt.Fprintf(w, "  --db             : Store results in SQLite (default path: %s)\n", GetDefaultDatabasePath())
	fmt.Fprintf(w, "  --workers        : Chapters analyzed in parallel\n")
	fmt.Fprintf(w, "  --ext            : Comma-separated extensions to scan (default: every supported format)\n")
	fmt.Fprintf(w, "  --exif           : Warn about files with an EXIF rotation (needs exiftool)\n")
	fmt.Fprintf(w, "  --no-containment : Skip the crop search\n")
	fmt.Fprintf(w, "  --debug          : Enable debug mode (logs detailed information)\n")
	fmt.Fprintf(w, "  --logfile        : Log file path (default: panelscan.log)\n")
	fmt.Fprintf(w, "\nSettings can also come from PANELSCAN_* variables or a .env file.\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  %s scan --root=/path/to/panels --threshold=6 --db\n", name)
	fmt.Fprintf(w, "  %s compare --img1=01.png --img2=02.png\n", name)
}
