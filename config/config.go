// Package config resolves run settings from .env files and PANELSCAN_*
// environment variables. Command-line flags override the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"panelscan/imageprocessor"
	"panelscan/signalhandler"
)

// Decoder backends
const (
	DecoderStd    = "std"
	DecoderOpenCV = "opencv"
)

// Config holds every setting of a scan
type Config struct {
	Root      string
	Threshold int
	HashSize  int
	Decoder   string
	Workers   int
	DBPath    string // empty disables persistence
	LogFile   string
	Debug     bool
	Exif      bool

	NoContainment bool
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Root:      "panels",
		Threshold: 4,
		HashSize:  imageprocessor.DefaultHashSize,
		Decoder:   DecoderStd,
		Workers:   signalhandler.GetOptimalProcs(),
		LogFile:   "panelscan.log",
	}
}

// Load reads .env and ../.env when present, then the environment
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	return FromEnv(os.Getenv)
}

// FromEnv applies PANELSCAN_* variables from getenv on top of the defaults
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	strs := map[string]*string{
		"PANELSCAN_ROOT":    &cfg.Root,
		"PANELSCAN_DECODER": &cfg.Decoder,
		"PANELSCAN_DB":      &cfg.DBPath,
		"PANELSCAN_LOGFILE": &cfg.LogFile,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PANELSCAN_THRESHOLD": &cfg.Threshold,
		"PANELSCAN_HASH_SIZE": &cfg.HashSize,
		"PANELSCAN_WORKERS":   &cfg.Workers,
	}
	for key, dst := range ints {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	bools := map[string]*bool{
		"PANELSCAN_DEBUG": &cfg.Debug,
		"PANELSCAN_EXIF":  &cfg.Exif,

		"PANELSCAN_NO_CONTAINMENT": &cfg.NoContainment,
	}
	for key, dst := range bools {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = b
	}
	return cfg, nil
}

// Validate rejects unusable settings and clamps the threshold into
// [0, HashSize²]
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root folder is required")
	}
	if c.HashSize < imageprocessor.MinHashSize || c.HashSize > imageprocessor.MaxHashSize {
		return fmt.Errorf("hash size %d outside %d..%d", c.HashSize, imageprocessor.MinHashSize, imageprocessor.MaxHashSize)
	}
	if c.Threshold < 0 {
		c.Threshold = 0
	}
	if limit := c.HashSize * c.HashSize; c.Threshold > limit {
		c.Threshold = limit
	}
	switch c.Decoder {
	case DecoderStd, DecoderOpenCV:
	default:
		return fmt.Errorf("unknown decoder %q (want %s or %s)", c.Decoder, DecoderStd, DecoderOpenCV)
	}
	if c.Workers < 1 {
		c.Workers = signalhandler.GetOptimalProcs()
	}
	return nil
}
