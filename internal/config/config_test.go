package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points Load at a dotenv file that does not exist.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{EnvFile: noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Data.Dir)
	assert.Empty(t, cfg.Data.SQLite)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Engine.NestedQueries)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_Layering(t *testing.T) {
	file := write(t, "config.yaml", `
server:
  addr: ":7000"
  read_timeout: 3s
log:
  level: warn
engine:
  nested_queries: true
`)
	envFile := write(t, "test.env", "NDCSTATIC_SERVER_ADDR=:7100\nNDCSTATIC_LOG_LEVEL=error\nUNRELATED=1\n")
	t.Setenv("NDCSTATIC_SERVER_ADDR", ":7200")
	t.Setenv("NDCSTATIC_SERVER_SHUTDOWN_TIMEOUT", "1s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-format", "text", "")
	flags.String("data", "", "")
	require.NoError(t, flags.Parse([]string{"--log-format", "json"}))

	cfg, err := Load(Options{File: file, EnvFile: envFile, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, ":7200", cfg.Server.Addr, "env beats dotenv and file")
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout, "file beats default")
	assert.Equal(t, time.Second, cfg.Server.ShutdownTimeout, "env beats default")
	assert.Equal(t, "error", cfg.Log.Level, "dotenv beats file")
	assert.Equal(t, "json", cfg.Log.Format, "set flag beats default")
	assert.Empty(t, cfg.Data.Dir, "unset flag does not override")
	assert.True(t, cfg.Engine.NestedQueries)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("NDCSTATIC_DATA_DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data", "", "")
	require.NoError(t, flags.Parse([]string{"--data", "/from/flag"}))

	cfg, err := Load(Options{EnvFile: noEnvFile(t), Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Data.Dir)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml"), EnvFile: noEnvFile(t)})
		assert.Error(t, err)
	})

	t.Run("invalid log format", func(t *testing.T) {
		t.Setenv("NDCSTATIC_LOG_FORMAT", "xml")
		_, err := Load(Options{EnvFile: noEnvFile(t)})
		assert.ErrorContains(t, err, "log.format must be text or json")
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("NDCSTATIC_LOG_LEVEL", "loud")
		_, err := Load(Options{EnvFile: noEnvFile(t)})
		assert.ErrorContains(t, err, "log.level")
	})

	t.Run("both datasets", func(t *testing.T) {
		t.Setenv("NDCSTATIC_DATA_DIR", "/a")
		t.Setenv("NDCSTATIC_DATA_SQLITE", "/b.db")
		_, err := Load(Options{EnvFile: noEnvFile(t)})
		assert.ErrorContains(t, err, "mutually exclusive")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("NDCSTATIC_SERVER_READ_TIMEOUT", "soon")
		_, err := Load(Options{EnvFile: noEnvFile(t)})
		assert.Error(t, err)
	})
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "NDCSTATIC_SERVER_READ_TIMEOUT", EnvName("server.read_timeout"))
	assert.Equal(t, "NDCSTATIC_ENGINE_NESTED_QUERIES", EnvName("engine.nested_queries"))
}

func TestFlagKeysAreKnown(t *testing.T) {
	known := make(map[string]bool)
	for _, d := range defaults {
		known[d.key] = true
	}
	for flag, key := range FlagKeys {
		assert.True(t, known[key], "flag %s maps to unknown key %s", flag, key)
	}
}
