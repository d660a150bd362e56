package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"panelscan/logging"
)

func TestGetDefaultDatabasePath(t *testing.T) {
	if got := filepath.Base(GetDefaultDatabasePath()); got != "panelscan.db" {
		t.Errorf("default database = %s", got)
	}
}

func TestCheckFolder(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CheckFolder(dir); err != nil {
		t.Errorf("CheckFolder(dir) = %v", err)
	}
	if err := CheckFolder(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("CheckFolder(file) = %v", err)
	}
	if err := CheckFolder(filepath.Join(dir, "nope")); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("CheckFolder(missing) = %v", err)
	}
}

func TestInitDatabaseWithRetry(t *testing.T) {
	db, err := InitDatabaseWithRetry(filepath.Join(t.TempDir(), "p.db"), logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	db.Close()
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, cmd := range []string{" scan ", " missing ", " compare "} {
		if !strings.Contains(buf.String(), cmd) {
			t.Errorf("usage missing %q", cmd)
		}
	}
}
