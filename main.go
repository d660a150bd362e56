package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"panelscan/config"
	"panelscan/database"
	"panelscan/detector"
	"panelscan/imageprocessor"
	"panelscan/imageprocessor/cvloader"
	"panelscan/logging"
	"panelscan/missing"
	"panelscan/report"
	"panelscan/scanner"
	"panelscan/scanner/processor"
	"panelscan/signalhandler"
	"panelscan/utils"
)

func main() {
	if len(os.Args) < 2 {
		utils.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "scan":
		err = handleScanCommand(cfg, args)
	case "missing":
		err = handleMissingCommand(cfg, args)
	case "compare":
		err = handleCompareCommand(cfg, args)
	case "help", "-h", "--help":
		utils.PrintUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		utils.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dbFlag registers --db; a bare --db selects the default path
func dbFlag(fs *pflag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "store results in this SQLite database")
	fs.Lookup("db").NoOptDefVal = utils.GetDefaultDatabasePath()
}

func handleScanCommand(cfg config.Config, args []string) error {
	var exts []string
	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	fs.StringVar(&cfg.Root, "root", cfg.Root, "folder whose subfolders are chapters")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "largest fingerprint distance reported as similar")
	fs.IntVar(&cfg.HashSize, "hash-size", cfg.HashSize, "fingerprint grid size")
	fs.StringVar(&cfg.Decoder, "decoder", cfg.Decoder, "decoder backend (std or opencv)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "chapters analyzed in parallel")
	fs.StringSliceVar(&exts, "ext", nil, "only scan files with these extensions (e.g. png,jpg)")
	fs.BoolVar(&cfg.Exif, "exif", cfg.Exif, "warn about EXIF-rotated files")
	fs.BoolVar(&cfg.NoContainment, "no-containment", cfg.NoContainment, "skip the crop search")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	fs.StringVar(&cfg.LogFile, "logfile", cfg.LogFile, "log file path")
	dbFlag(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := utils.CheckFolder(cfg.Root); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Path: cfg.LogFile, Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer logger.Close()
	if cfg.Debug {
		fmt.Printf("Debug mode enabled. Logging to: %s\n", cfg.LogFile)
	}

	ctx, stop := signalhandler.SetupHandler(context.Background(), logger)
	defer stop()

	hasher, err := imageprocessor.NewAverageHasher(cfg.HashSize)
	if err != nil {
		return err
	}

	sinks := report.MultiSink{report.NewTextSink(os.Stdout), report.NewLogSink(logger)}

	var (
		db    *sql.DB
		store *report.SQLiteSink
	)
	startTime := time.Now()
	if cfg.DBPath != "" {
		db, err = utils.InitDatabaseWithRetry(cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		store, err = report.NewSQLiteSink(db, database.ScanInfo{
			Root:      cfg.Root,
			Threshold: cfg.Threshold,
			HashSize:  cfg.HashSize,
			StartedAt: startTime,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	var exif scanner.OrientationChecker
	if cfg.Exif {
		inspector, err := imageprocessor.NewExifInspector()
		if err != nil {
			logger.Warnf("EXIF orientation check disabled: %v", err)
		} else {
			defer inspector.Close()
			exif = inspector
		}
	}

	runErr := scanner.Run(ctx, scanner.ScanOptions{
		Root: cfg.Root,
		Detector: detector.Options{
			Threshold:       cfg.Threshold,
			SkipContainment: cfg.NoContainment,
		},
		Extensions: exts,
		MaxWorkers: cfg.Workers,
		Decoder:    newDecoder(cfg.Decoder),
		Hasher:     hasher,
		Sink:       sinks,
		Log:        logger,
		Progress:   os.Stderr,
		Exif:       exif,
	})
	closeErr := sinks.Close()

	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nScan interrupted; chapters finished so far were reported.")
		runErr = nil
	}
	if runErr == nil && closeErr == nil {
		fmt.Printf("\nTotal execution time: %v\n", time.Since(startTime).Round(time.Millisecond))
		if store != nil {
			fmt.Printf("Database: %s\n", cfg.DBPath)
			if err := scanner.PrintScanStats(os.Stdout, db, store.ScanID()); err != nil {
				logger.Warnf("%v", err)
			}
		}
	}
	return errors.Join(runErr, closeErr)
}

func newDecoder(name string) *imageprocessor.ImageLoaderRegistry {
	registry := imageprocessor.NewImageLoaderRegistry()
	if name == config.DecoderOpenCV {
		cvloader.Register(registry)
	}
	return registry
}

func handleMissingCommand(cfg config.Config, args []string) error {
	fs := pflag.NewFlagSet("missing", pflag.ContinueOnError)
	fs.StringVar(&cfg.Root, "root", cfg.Root, "folder whose subfolders are chapters")
	dbFlag(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := utils.CheckFolder(cfg.Root); err != nil {
		return err
	}

	reports, err := missing.Analyze(cfg.Root)
	if err != nil {
		return err
	}
	missing.PrintReports(os.Stdout, reports)

	if cfg.DBPath == "" {
		return nil
	}
	db, err := utils.InitDatabaseWithRetry(cfg.DBPath, logging.Discard())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.StorePanelGaps(db, missing.Gaps(reports), time.Now()); err != nil {
		return err
	}
	fmt.Printf("\nAudit stored in %s\n", cfg.DBPath)
	return nil
}

func handleCompareCommand(cfg config.Config, args []string) error {
	var img1, img2 string
	fs := pflag.NewFlagSet("compare", pflag.ContinueOnError)
	fs.StringVar(&img1, "img1", "", "first image")
	fs.StringVar(&img2, "img2", "", "second image")
	fs.IntVar(&cfg.HashSize, "hash-size", cfg.HashSize, "fingerprint grid size")
	fs.IntVar(&cfg.Threshold, "threshold", cfg.Threshold, "largest fingerprint distance reported as similar")
	fs.StringVar(&cfg.Decoder, "decoder", cfg.Decoder, "decoder backend (std or opencv)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if img1 == "" || img2 == "" {
		return fmt.Errorf("compare needs --img1 and --img2")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	hasher, err := imageprocessor.NewAverageHasher(cfg.HashSize)
	if err != nil {
		return err
	}
	proc := processor.NewImageProcessor(newDecoder(cfg.Decoder), hasher, nil)

	a, err := proc.ProcessImage(img1)
	if err != nil {
		return err
	}
	b, err := proc.ProcessImage(img2)
	if err != nil {
		return err
	}

	for _, r := range []struct {
		label string
		w, h  int
		dg    string
		fp    string
	}{
		{img1, a.Width(), a.Height(), a.Digest().String(), a.Fingerprint().Hex()},
		{img2, b.Width(), b.Height(), b.Digest().String(), b.Fingerprint().Hex()},
	} {
		fmt.Printf("%s\n  size:        %dx%d\n  sha256:      %s\n  fingerprint: %s\n", r.label, r.w, r.h, r.dg, r.fp)
	}

	c := detector.Compare(a, b, cfg.Threshold)
	fmt.Printf("\nHamming distance: %d of %d bits\n", c.Distance, hasher.Bits())
	switch {
	case c.Identical:
		fmt.Println("Verdict: identical pixels")
	case c.Contained != nil:
		fmt.Printf("Verdict: %s is cropped from %s at (%d,%d)\n",
			c.Contained.Child, c.Contained.Parent, c.Contained.X, c.Contained.Y)
	case c.Similar:
		fmt.Printf("Verdict: perceptual duplicate (threshold %d)\n", cfg.Threshold)
	case !c.SameSize:
		fmt.Println("Verdict: different sizes, not compared perceptually")
	default:
		fmt.Println("Verdict: different")
	}
	return nil
}
