// Package missing audits chapter folders for gaps in panel numbering.
// A panel's number is the last integer in its filename stem.
package missing

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"panelscan/database"
	"panelscan/scanner"
	"panelscan/types"
)

// PanelExtensions are the files that count as panels
var PanelExtensions = []string{".webp", ".png", ".jpg", ".jpeg"}

var (
	numberPattern  = regexp.MustCompile(`\d+`)
	chapterPattern = regexp.MustCompile(`(?i)chapter\s*(\d+)`)
	volumePattern  = regexp.MustCompile(`(?i)vol(?:ume)?\.?\s*\d+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// ChapterReport is the audit result for one chapter folder
type ChapterReport struct {
	Name       string
	Path       string
	PanelCount int
	Min, Max   int // valid only when PanelCount > 0
	Missing    []int
	Duplicates []int
}

// PanelNumber returns the last integer in the filename stem
func PanelNumber(path string) (int, bool) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	digits := numberPattern.FindAllString(stem, -1)
	if len(digits) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits[len(digits)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// CollectPanelNumbers returns the sorted panel numbers of files and the
// sorted numbers that occur more than once
func CollectPanelNumbers(files []string) (numbers, duplicates []int) {
	seen := make(map[int]int)
	for _, f := range files {
		n, ok := PanelNumber(f)
		if !ok {
			continue
		}
		numbers = append(numbers, n)
		seen[n]++
	}
	for n, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, n)
		}
	}
	sort.Ints(numbers)
	sort.Ints(duplicates)
	return numbers, duplicates
}

// FindMissing lists the numbers skipped between consecutive sorted numbers
func FindMissing(numbers []int) []int {
	var missing []int
	for i := 1; i < len(numbers); i++ {
		for n := numbers[i-1] + 1; n < numbers[i]; n++ {
			missing = append(missing, n)
		}
	}
	return missing
}

// Summarize audits one chapter
func Summarize(ch types.Chapter) ChapterReport {
	numbers, duplicates := CollectPanelNumbers(ch.Files)
	r := ChapterReport{
		Name:       ch.Name,
		Path:       ch.Path,
		PanelCount: len(numbers),
		Missing:    FindMissing(numbers),
		Duplicates: duplicates,
	}
	if len(numbers) > 0 {
		r.Min, r.Max = numbers[0], numbers[len(numbers)-1]
	}
	return r
}

// Analyze audits every chapter under root
func Analyze(root string) ([]ChapterReport, error) {
	chapters, err := scanner.DiscoverChapters(root, scanner.ExtensionFilter(PanelExtensions))
	if err != nil {
		return nil, err
	}
	return lo.Map(chapters, func(ch types.Chapter, _ int) ChapterReport { return Summarize(ch) }), nil
}

// ChapterNumber infers the chapter number from a folder label such as
// "Chapter 12" or "Vol_2_Chapter_7". Without a "chapter" keyword the first
// number in the label wins.
func ChapterNumber(label string) (int, bool) {
	label = normalizeChapterLabel(label)
	if m := chapterPattern.FindStringSubmatch(label); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if d := numberPattern.FindString(label); d != "" {
		n, err := strconv.Atoi(d)
		return n, err == nil
	}
	return 0, false
}

func normalizeChapterLabel(label string) string {
	clean := strings.ReplaceAll(label, "_", " ")
	clean = volumePattern.ReplaceAllString(clean, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(clean, " "))
}

// PrintReports writes the audit the way a reviewer reads it
func PrintReports(w io.Writer, reports []ChapterReport) {
	for _, r := range reports {
		fmt.Fprintf(w, "\n%s\n", r.Name)
		if r.PanelCount == 0 {
			fmt.Fprintln(w, "  · No numeric panel filenames found.")
			continue
		}
		fmt.Fprintf(w, "  · Panels detected: %d (min %d, max %d)\n", r.PanelCount, r.Min, r.Max)
		if len(r.Missing) > 0 {
			fmt.Fprintf(w, "  · Missing numbers: %s\n", joinInts(r.Missing))
		} else {
			fmt.Fprintln(w, "  · No gaps detected.")
		}
		if len(r.Duplicates) > 0 {
			fmt.Fprintf(w, "  · Duplicate numbers: %s\n", joinInts(r.Duplicates))
		}
	}
}

// Gaps converts reports into database rows
func Gaps(reports []ChapterReport) []database.PanelGap {
	return lo.Map(reports, func(r ChapterReport, _ int) database.PanelGap {
		g := database.PanelGap{
			Chapter:    r.Name,
			Path:       r.Path,
			PanelCount: r.PanelCount,
			Missing:    r.Missing,
			Duplicates: r.Duplicates,
		}
		if n, ok := ChapterNumber(r.Name); ok {
			g.ChapterNumber = sql.NullInt64{Int64: int64(n), Valid: true}
		}
		if r.PanelCount > 0 {
			g.MinPanel = sql.NullInt64{Int64: int64(r.Min), Valid: true}
			g.MaxPanel = sql.NullInt64{Int64: int64(r.Max), Valid: true}
		}
		return g
	})
}

func joinInts(v []int) string {
	return strings.Join(lo.Map(v, func(n int, _ int) string { return strconv.Itoa(n) }), ", ")
}
