package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightlens/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FLIGHTLENS_DRIVER", "FLIGHTLENS_HOST", "FLIGHTLENS_PORT",
		"FLIGHTLENS_DATABASE", "FLIGHTLENS_USER", "FLIGHTLENS_CREDENTIAL",
		"FLIGHTLENS_SEARCH_PATH", "FLIGHTLENS_STYLES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTLENS_DATABASE", ":memory:")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverDuckDB, cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.Store.Database)
	assert.NotEmpty(t, cfg.Store.Warnings, "default driver should produce a warning")
}

func TestLoadFromEnv_Postgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTLENS_DRIVER", "postgres")
	t.Setenv("FLIGHTLENS_HOST", "db.example.com")
	t.Setenv("FLIGHTLENS_DATABASE", "airtraffic")
	t.Setenv("FLIGHTLENS_USER", "analyst")
	t.Setenv("FLIGHTLENS_CREDENTIAL", "hunter2")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Store.Port, "postgres port should default")
	assert.Equal(t, "public", cfg.Store.SearchPath, "search path should default")
}

func TestLoadFromEnv_BadPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTLENS_PORT", "not-a-port")

	_, err := LoadFromEnv()
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadFromEnv_StylePaths(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTLENS_DATABASE", ":memory:")
	t.Setenv("FLIGHTLENS_STYLES", "a.yaml, b.yaml ,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Styles)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		cfg  StoreConfig
	}{
		{"no driver", StoreConfig{}},
		{"unknown driver", StoreConfig{Driver: "oracle", Database: "x"}},
		{"duckdb no database", StoreConfig{Driver: DriverDuckDB}},
		{"postgres no host", StoreConfig{Driver: DriverPostgres, Database: "x", User: "u", Credential: "c", Port: 5432}},
		{"postgres bad port", StoreConfig{Driver: DriverPostgres, Host: "h", Database: "x", User: "u", Credential: "c", Port: 99999}},
		{"postgres no credential", StoreConfig{Driver: DriverPostgres, Host: "h", Database: "x", User: "u", Port: 5432}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestString_RedactsCredential(t *testing.T) {
	cfg := StoreConfig{
		Driver: DriverPostgres, Host: "h", Port: 5432,
		Database: "airtraffic", User: "analyst", Credential: "hunter2",
	}

	s := fmt.Sprint(cfg)
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "[REDACTED]")
}

func TestLogValue_RedactsCredential(t *testing.T) {
	cfg := StoreConfig{
		Driver: DriverPostgres, Host: "h", Port: 5432,
		Database: "airtraffic", User: "analyst", Credential: "hunter2",
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("store configured", "config", cfg)

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "airtraffic")
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	if err != nil {
		t.Errorf("expected no error for missing .env, got: %v", err)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := "# comment\nFLIGHTLENS_TEST_KEY=value\nFLIGHTLENS_TEST_QUOTED='quoted value'\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("FLIGHTLENS_TEST_KEY", "")
	t.Setenv("FLIGHTLENS_TEST_QUOTED", "")
	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "value", os.Getenv("FLIGHTLENS_TEST_KEY"))
	assert.Equal(t, "quoted value", os.Getenv("FLIGHTLENS_TEST_QUOTED"))
}

func TestLoadDotEnv_EnvTakesPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FLIGHTLENS_TEST_PRI=file\n"), 0o644))

	t.Setenv("FLIGHTLENS_TEST_PRI", "env")
	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "env", os.Getenv("FLIGHTLENS_TEST_PRI"))
}
