package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"panelscan/detector"
	"panelscan/imageprocessor"
	"panelscan/logging"
	"panelscan/report"
	"panelscan/scanner/processor"
	"panelscan/signalhandler"
	"panelscan/types"
)

// ErrNoSink is returned by Run when the options carry no report sink
var ErrNoSink = errors.New("scanner: no report sink")

type chapterResult struct {
	summary  types.ChapterSummary
	failures []*types.DecodeFailure
}

// Run discovers the chapters under options.Root, analyzes them in parallel
// and delivers each chapter's findings to options.Sink in chapter order.
// Cancellation is honored between chapters; a sink error stops the run.
func Run(ctx context.Context, options ScanOptions) error {
	if err := options.normalize(); err != nil {
		return err
	}

	accept := ExtensionFilter(options.Extensions)
	chapters, err := DiscoverChapters(options.Root, func(path string) bool {
		return options.Decoder.CanLoadFile(path) && accept(path)
	})
	if err != nil {
		return err
	}

	stats := CountFiles(chapters)
	if options.Progress != nil {
		PrintStartupInfo(options.Progress, stats, options)
	}
	tracker := NewProgressTracker(stats, options.Progress)

	proc := processor.NewImageProcessor(options.Decoder, options.Hasher, options.Log)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan chapterResult, len(chapters))
	for i := range slots {
		slots[i] = make(chan chapterResult, 1)
	}

	var deliverErr error
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		deliverErr = deliverInOrder(options.Sink, chapters, slots, tracker)
		if deliverErr != nil {
			cancel()
		}
	}()

	workers := new(errgroup.Group)
	workers.SetLimit(options.MaxWorkers)
	dispatched := 0
	for i, ch := range chapters {
		if runCtx.Err() != nil {
			break
		}
		slot := slots[i]
		workers.Go(func() error {
			slot <- analyzeChapter(ch, proc, tracker, options)
			return nil
		})
		dispatched++
	}
	for _, slot := range slots[dispatched:] {
		close(slot)
	}
	_ = workers.Wait()
	<-delivered

	tracker.Stop()
	if options.Progress != nil {
		PrintCompletionStats(options.Progress, tracker, options)
	}

	if deliverErr != nil {
		return deliverErr
	}
	return ctx.Err()
}

func (o *ScanOptions) normalize() error {
	if o.Sink == nil {
		return ErrNoSink
	}
	if o.Log == nil {
		o.Log = logging.Discard()
	}
	if o.Decoder == nil {
		o.Decoder = imageprocessor.NewImageLoaderRegistry()
	}
	if o.Hasher == nil {
		h, err := imageprocessor.NewAverageHasher(imageprocessor.DefaultHashSize)
		if err != nil {
			return err
		}
		o.Hasher = h
	}
	if o.MaxWorkers < 1 {
		o.MaxWorkers = signalhandler.GetOptimalProcs()
	}
	if o.Detector.Threshold < 0 {
		o.Detector.Threshold = 0
	}
	return nil
}

// deliverInOrder waits for each chapter in turn. A closed slot means the
// chapter was never dispatched.
func deliverInOrder(sink report.Sink, chapters []types.Chapter, slots []chan chapterResult, tracker *ProgressTracker) error {
	for i, slot := range slots {
		res, ok := <-slot
		if !ok {
			return nil
		}
		if err := report.Deliver(sink, res.summary, res.failures); err != nil {
			return fmt.Errorf("report chapter %s: %w", chapters[i].Name, err)
		}
		tracker.ChapterDone()
	}
	return nil
}

func analyzeChapter(ch types.Chapter, proc *processor.ImageProcessor, tracker *ProgressTracker, options ScanOptions) chapterResult {
	start := time.Now()
	log := options.Log

	if options.Exif != nil {
		for _, r := range options.Exif.RotatedFiles(ch.Files) {
			log.Warnf("%s has EXIF orientation %d; containment only matches stored pixels", r.Path, r.Orientation)
		}
	}

	records, failures := LoadChapter(ch.Files, proc, func(r ProcessImageResult) {
		r.Chapter = ch.Name
		tracker.Record(r, log)
	})
	findings := detector.Analyze(records, options.Detector)

	log.Debugf("Chapter %s: %d loaded, %d failed in %v", ch.Name, len(records), len(failures), time.Since(start))
	return chapterResult{
		summary: types.ChapterSummary{
			Chapter:  ch,
			Loaded:   len(records),
			Failed:   len(failures),
			Findings: findings,
			Elapsed:  time.Since(start),
		},
		failures: failures,
	}
}
