package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "panels" || cfg.Threshold != 4 || cfg.HashSize != 12 || cfg.Decoder != DecoderStd {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Workers < 1 || cfg.DBPath != "" {
		t.Errorf("workers=%d db=%q", cfg.Workers, cfg.DBPath)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PANELSCAN_ROOT":      "/data/panels",
		"PANELSCAN_THRESHOLD": " 7 ",
		"PANELSCAN_HASH_SIZE": "8",
		"PANELSCAN_DECODER":   "opencv",
		"PANELSCAN_WORKERS":   "3",
		"PANELSCAN_DB":        "/tmp/p.db",
		"PANELSCAN_DEBUG":     "true",
		"PANELSCAN_EXIF":      "1",
	}))
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Root: "/data/panels", Threshold: 7, HashSize: 8, Decoder: DecoderOpenCV,
		Workers: 3, DBPath: "/tmp/p.db", LogFile: "panelscan.log", Debug: true, Exif: true,
	}
	if cfg != want {
		t.Errorf("cfg = %+v\nwant  %+v", cfg, want)
	}
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	for _, env := range []map[string]string{
		{"PANELSCAN_THRESHOLD": "four"},
		{"PANELSCAN_DEBUG": "maybe"},
	} {
		if _, err := FromEnv(envMap(env)); err == nil {
			t.Errorf("FromEnv(%v) succeeded", env)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		check   func(Config) bool
	}{
		{"negative threshold clamps to zero", func(c *Config) { c.Threshold = -3 }, "", func(c Config) bool { return c.Threshold == 0 }},
		{"threshold clamps to bit count", func(c *Config) { c.HashSize = 4; c.Threshold = 99 }, "", func(c Config) bool { return c.Threshold == 16 }},
		{"hash size too small", func(c *Config) { c.HashSize = 1 }, "hash size", nil},
		{"hash size too large", func(c *Config) { c.HashSize = 17 }, "hash size", nil},
		{"unknown decoder", func(c *Config) { c.Decoder = "magick" }, "unknown decoder", nil},
		{"empty root", func(c *Config) { c.Root = "" }, "root", nil},
		{"workers default", func(c *Config) { c.Workers = 0 }, "", func(c Config) bool { return c.Workers >= 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(cfg) {
				t.Errorf("cfg = %+v", cfg)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PANELSCAN_HASH_SIZE=9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("PANELSCAN_HASH_SIZE") })

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HashSize != 9 {
		t.Errorf("hash size = %d, want 9", cfg.HashSize)
	}
}
