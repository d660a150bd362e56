package scanner

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"panelscan/logging"
)

// NewProgressTracker initializes the progress tracker. A nil writer keeps
// the counters but draws nothing.
func NewProgressTracker(stats FileStats, out io.Writer) *ProgressTracker {
	tracker := &ProgressTracker{
		totalFiles: stats.totalFiles,
		started:    time.Now(),
	}
	if out != nil {
		tracker.bar = progressbar.NewOptions(stats.totalFiles,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Loading panels"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return tracker
}

// Record updates the tracker state with one file's result
func (p *ProgressTracker) Record(result ProcessImageResult, log *logging.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if !result.Success {
		p.errors++
	}
	log.ImageProcessed(result.Path, result.Error)
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// ChapterDone counts a finished chapter
func (p *ProgressTracker) ChapterDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chapters++
}

// Counts returns processed files, failed files and finished chapters
func (p *ProgressTracker) Counts() (processed, errors, chapters int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.errors, p.chapters
}

// Stop ends the progress display
func (p *ProgressTracker) Stop() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// PrintStartupInfo displays information about the scan before starting
func PrintStartupInfo(w io.Writer, stats FileStats, options ScanOptions) {
	fmt.Fprintf(w, "Starting panel scan...\nChapters: %d, image files: %d\n", stats.chapters, stats.totalFiles)
	fmt.Fprintf(w, "Similarity threshold: %d\n", options.Detector.Threshold)
	if options.Detector.SkipContainment {
		fmt.Fprintf(w, "Containment search: disabled\n")
	}
	options.Log.Debugf("Found %d image files in %d chapters under %s",
		stats.totalFiles, stats.chapters, options.Root)
}

// PrintCompletionStats displays statistics after scan completion
func PrintCompletionStats(w io.Writer, tracker *ProgressTracker, options ScanOptions) {
	elapsed := time.Since(tracker.started)
	processed, errors, chapters := tracker.Counts()

	options.Log.Debugf("Scan completed in %v. Chapters: %d, files: %d, errors: %d",
		elapsed, chapters, processed, errors)

	fmt.Fprintln(w, "\nScan complete.")
	fmt.Fprintf(w, "Processed %d images in %d chapters in %v.\n", processed, chapters, elapsed.Round(time.Millisecond))
	if errors > 0 {
		fmt.Fprintf(w, "Encountered %d unreadable files.\n", errors)
		fmt.Fprintln(w, "Check the log file for details.")
	}
}
