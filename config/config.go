// Package config handles store connection and style source configuration.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"flightlens/domain"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
)

// redacted replaces the credential everywhere a config is printed or logged.
const redacted = "[REDACTED]"

// StoreConfig holds the connection settings for the historical store.
// It is loaded once at process start and never mutated afterwards.
type StoreConfig struct {
	Driver     string // "postgres", "duckdb", or "sqlite"
	Host       string
	Port       int
	Database   string // database name, or file path for duckdb/sqlite (":memory:" allowed)
	User       string
	Credential string
	SearchPath string // schema search path (postgres only)

	// Warnings collects non-fatal warnings generated during loading.
	// They are logged by the caller after the logger is initialised.
	Warnings []string
}

// Config is the full library configuration: the store plus the style
// profile documents to load at startup.
type Config struct {
	Store  StoreConfig
	Styles []string // paths to style profile YAML documents
}

// LoadFromEnv loads configuration from FLIGHTLENS_* environment variables.
// Missing or malformed values are reported by Validate, not here, so a
// caller can inspect the partially loaded config.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Driver:     os.Getenv("FLIGHTLENS_DRIVER"),
			Host:       os.Getenv("FLIGHTLENS_HOST"),
			Database:   os.Getenv("FLIGHTLENS_DATABASE"),
			User:       os.Getenv("FLIGHTLENS_USER"),
			Credential: os.Getenv("FLIGHTLENS_CREDENTIAL"),
			SearchPath: os.Getenv("FLIGHTLENS_SEARCH_PATH"),
		},
	}

	if v := os.Getenv("FLIGHTLENS_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, domain.ErrConfiguration("FLIGHTLENS_PORT %q is not a number", v)
		}
		cfg.Store.Port = n
	}

	if v := os.Getenv("FLIGHTLENS_STYLES"); v != "" {
		paths := strings.Split(v, ",")
		for i := range paths {
			paths[i] = strings.TrimSpace(paths[i])
		}
		cfg.Styles = compactNonEmpty(paths)
	}

	// Defaults
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverDuckDB
		cfg.Store.Warnings = append(cfg.Store.Warnings,
			"FLIGHTLENS_DRIVER not set — defaulting to embedded duckdb")
	}
	if cfg.Store.Driver == DriverPostgres && cfg.Store.Port == 0 {
		cfg.Store.Port = 5432
	}
	if cfg.Store.Driver == DriverPostgres && cfg.Store.SearchPath == "" {
		cfg.Store.SearchPath = "public"
	}

	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the store configuration is complete for its driver.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return domain.ErrConfiguration("postgres store requires a host")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return domain.ErrConfiguration("postgres store port %d out of range", c.Port)
		}
		if c.Database == "" {
			return domain.ErrConfiguration("postgres store requires a database name")
		}
		if c.User == "" || c.Credential == "" {
			return domain.ErrConfiguration("postgres store requires user and credential")
		}
	case DriverDuckDB, DriverSQLite:
		if c.Database == "" {
			return domain.ErrConfiguration("%s store requires a database path (\":memory:\" allowed)", c.Driver)
		}
	case "":
		return domain.ErrConfiguration("store driver is required")
	default:
		return domain.ErrConfiguration("unknown store driver %q", c.Driver)
	}
	return nil
}

// String renders the config with the credential redacted. The only way to
// obtain the credential is the DSN assembled by the db package; it must
// never reach a log record or a persisted artifact.
func (c StoreConfig) String() string {
	cred := ""
	if c.Credential != "" {
		cred = redacted
	}
	return fmt.Sprintf("StoreConfig{Driver:%s Host:%s Port:%d Database:%s User:%s Credential:%s SearchPath:%s}",
		c.Driver, c.Host, c.Port, c.Database, c.User, cred, c.SearchPath)
}

// LogValue implements slog.LogValuer so structured logs get the redacted form.
func (c StoreConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("driver", c.Driver),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("database", c.Database),
		slog.String("user", c.User),
		slog.String("search_path", c.SearchPath),
	)
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already set take precedence.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
