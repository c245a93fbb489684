package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable: NDCSTATIC_SERVER_ADDR
// sets server.addr.
const EnvPrefix = "NDCSTATIC"

// Config holds the service configuration.
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Data struct {
		Dir    string `mapstructure:"dir"`
		SQLite string `mapstructure:"sqlite"`
	} `mapstructure:"data"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Engine struct {
		NestedQueries bool `mapstructure:"nested_queries"`
	} `mapstructure:"engine"`
}

// defaults lists every key with its default. Keys absent here are not
// read from the environment.
var defaults = []struct {
	key   string
	value any
}{
	{"server.addr", ":8080"},
	{"server.read_timeout", 10 * time.Second},
	{"server.shutdown_timeout", 5 * time.Second},
	{"data.dir", ""},
	{"data.sqlite", ""},
	{"log.level", "info"},
	{"log.format", "text"},
	{"engine.nested_queries", false},
}

// FlagKeys maps CLI flag names to config keys. Only flags the user set
// override lower layers.
var FlagKeys = map[string]string{
	"addr":           "server.addr",
	"data":           "data.dir",
	"sqlite":         "data.sqlite",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"nested-queries": "engine.nested_queries",
}

// Options selects the sources Load reads.
type Options struct {
	// File is an optional YAML config file. A named file that does not
	// exist is an error.
	File string

	// EnvFile is an optional dotenv file holding NDCSTATIC_* variables.
	// A missing file is ignored. Empty means ".env".
	EnvFile string

	// Flags are bound through FlagKeys. May be nil.
	Flags *pflag.FlagSet
}

// Load layers configuration, lowest precedence first:
//
//  1. Defaults
//  2. YAML config file
//  3. Dotenv file
//  4. Environment variables (NDCSTATIC_*)
//  5. Explicitly set CLI flags
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}

	// 2. Config file
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}

	// 3. Dotenv, merged into the config layer so real env vars still win
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := readDotenv(envFile)
	if err != nil {
		return nil, err
	}
	if len(dotenv) > 0 {
		if err := v.MergeConfigMap(dotenv); err != nil {
			return nil, fmt.Errorf("merge %s: %w", envFile, err)
		}
	}

	// 4. Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. Flags
	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvName returns the environment variable for a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readDotenv reads the known NDCSTATIC_* variables of a dotenv file into a
// nested config map.
func readDotenv(path string) (map[string]any, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil // optional
	}

	e := viper.New()
	e.SetConfigFile(path)
	e.SetConfigType("env")
	if err := e.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make(map[string]any)
	for _, d := range defaults {
		name := strings.ToLower(EnvName(d.key))
		if !e.IsSet(name) {
			continue
		}
		section, leaf, _ := strings.Cut(d.key, ".")
		m, ok := out[section].(map[string]any)
		if !ok {
			m = make(map[string]any)
			out[section] = m
		}
		m[leaf] = e.Get(name)
	}
	return out, nil
}

// Validate checks value constraints that decoding cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.Dir != "" && c.Data.SQLite != "" {
		errs = append(errs, fmt.Errorf("data.dir and data.sqlite are mutually exclusive"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Server.ReadTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses log.level ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
