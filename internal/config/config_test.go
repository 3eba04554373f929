package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visadash/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_BACKEND", "CSV_PATH", "AMQP_URL", "TOP_INDUSTRIES", "TOP_EMPLOYERS", "WATCHLIST_FILE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.DataBackend != "csv" {
		t.Fatalf("backend = %s", cfg.DataBackend)
	}
	if cfg.TopIndustries != 10 || cfg.TopEmployers != 30 {
		t.Fatalf("top defaults = (%d,%d)", cfg.TopIndustries, cfg.TopEmployers)
	}
	if cfg.AMQPURL != "" {
		t.Fatalf("AMQP should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("TOP_INDUSTRIES", "5")
	t.Setenv("TOP_EMPLOYERS", "not-a-number")
	cfg := Load()
	if cfg.TopEmployers != 30 {
		t.Fatalf("unparseable int should fall back to default, got %d", cfg.TopEmployers)
	}
	if cfg.Port != "9000" || cfg.DataBackend != "sqlite" || cfg.TopIndustries != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:          "8081",
			DataBackend:   "csv",
			CSVPath:       "./data/x.csv",
			SQLiteDBPath:  "./data/x.db",
			TopIndustries: 10,
			TopEmployers:  30,
			MaxRecordRows: 1000,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.DataBackend = "parquet" }, "invalid data backend"},
		{"empty csv path", func(c *Config) { c.CSVPath = "" }, "CSV path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPQueue = "" }, "queue name"},
		{"top industries", func(c *Config) { c.TopIndustries = 0 }, "top industries"},
		{"top employers", func(c *Config) { c.TopEmployers = 501 }, "top employers"},
		{"record rows", func(c *Config) { c.MaxRecordRows = 0 }, "max record rows"},
		{"missing watchlist file", func(c *Config) { c.WatchlistFile = "/nonexistent/wl.txt" }, "watchlist file"},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestWatchlistDefault(t *testing.T) {
	cfg := &Config{}
	wl, err := cfg.Watchlist()
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(wl) != len(core.DefaultWatchlist) {
		t.Fatalf("got %d labels, want %d", len(wl), len(core.DefaultWatchlist))
	}
	// The returned slice is a copy.
	wl[0] = "changed"
	if core.DefaultWatchlist[0] == "changed" {
		t.Fatalf("Watchlist returned the shared default slice")
	}
}

func TestWatchlistFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.txt")
	content := "# comment\n54 - Professional, Scientific, and Technical Services\n\n31-33 - Manufacturing\n31-33 - Manufacturing\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg := &Config{WatchlistFile: path}
	wl, err := cfg.Watchlist()
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(wl) != 2 {
		t.Fatalf("labels = %v, want 2 deduped entries", wl)
	}
	if wl[0] != "54 - Professional, Scientific, and Technical Services" {
		t.Fatalf("first label = %q", wl[0])
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# only comments\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := (&Config{WatchlistFile: empty}).Watchlist(); err == nil {
		t.Fatalf("expected error for empty watchlist file")
	}
}
