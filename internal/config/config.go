package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"visadash/internal/core"
)

type Config struct {
	// HTTP server
	Port string

	// Dataset backend: csv loads straight from the export file,
	// sqlite loads the ingested snapshot.
	DataBackend  string
	CSVPath      string
	SQLiteDBPath string

	// AMQP refresh messaging (optional; empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Aggregation defaults
	TopIndustries int
	TopEmployers  int
	MaxRecordRows int

	// Optional override of core.DefaultWatchlist: one industry label per
	// line. Labels contain commas, so a file rather than a delimited env var.
	WatchlistFile string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "csv"),
		CSVPath:      getEnv("CSV_PATH", "./data/employer_info.csv"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/visadash.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "visadash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_refresh"),

		TopIndustries: getEnvInt("TOP_INDUSTRIES", 10),
		TopEmployers:  getEnvInt("TOP_EMPLOYERS", 30),
		MaxRecordRows: getEnvInt("MAX_RECORD_ROWS", 1000),

		WatchlistFile: getEnv("WATCHLIST_FILE", ""),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "csv":
		if c.CSVPath == "" {
			errs = append(errs, "CSV path cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [csv sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.TopIndustries < 1 || c.TopIndustries > 100 {
		errs = append(errs, fmt.Sprintf("invalid top industries %d: must be between 1 and 100", c.TopIndustries))
	}
	if c.TopEmployers < 1 || c.TopEmployers > 500 {
		errs = append(errs, fmt.Sprintf("invalid top employers %d: must be between 1 and 500", c.TopEmployers))
	}
	if c.MaxRecordRows < 1 {
		errs = append(errs, fmt.Sprintf("invalid max record rows %d: must be at least 1", c.MaxRecordRows))
	}

	if c.WatchlistFile != "" {
		if _, err := os.Stat(c.WatchlistFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("watchlist file does not exist: %s", c.WatchlistFile))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// Watchlist returns the configured watch-list industries: the contents of
// WatchlistFile when set (one label per line, # comments skipped), otherwise
// a copy of core.DefaultWatchlist.
func (c *Config) Watchlist() ([]string, error) {
	if c.WatchlistFile == "" {
		return append([]string(nil), core.DefaultWatchlist...), nil
	}

	f, err := os.Open(c.WatchlistFile)
	if err != nil {
		return nil, fmt.Errorf("open watchlist file: %w", err)
	}
	defer f.Close()

	var labels []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		labels = append(labels, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist file: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("watchlist file %s has no industry labels", c.WatchlistFile)
	}
	return labels, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
