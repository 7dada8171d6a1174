// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/tustats/lib/compress"
	"github.com/bureau-foundation/tustats/lib/rank"
	"github.com/bureau-foundation/tustats/lib/recorder"
	"github.com/bureau-foundation/tustats/lib/schema/tustats"
	"github.com/bureau-foundation/tustats/lib/statstore"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "TUSTATS_CONFIG"

// Config is the top-level configuration file.
type Config struct {
	// TUStats configures recording and reporting.
	TUStats TUStatsConfig `yaml:"tu_stats"`

	// LogLevel is debug, info, warn, or error. Default: info.
	LogLevel string `yaml:"log_level"`
}

// TUStatsConfig configures the stats subsystem.
type TUStatsConfig struct {
	// Enabled turns recording on. Default: false.
	Enabled bool `yaml:"enabled"`

	// StatsFile is the store location: a directory for the badger
	// engine, a database file for sqlite.
	// Default: ${CACHE_DIR}/tustats/tu_stats.db
	StatsFile string `yaml:"stats_file"`

	// Engine is sqlite or badger. Default: sqlite, the engine that
	// lets reports read while a build writes.
	Engine string `yaml:"engine"`

	// QueueCapacity bounds the records waiting to be written.
	// Default: 1024.
	QueueCapacity int `yaml:"queue_capacity"`

	// DrainTimeout bounds the flush at shutdown. Default: 5s.
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// Compression is none, lz4, or zstd. Default: zstd.
	Compression string `yaml:"compression"`

	// CompressThreshold is the payload size in bytes from which
	// Compression applies. Default: 4096.
	CompressThreshold int `yaml:"compress_threshold"`

	// PrefixRule groups includes in reports. Default: segments:2.
	PrefixRule string `yaml:"prefix_rule"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	encoding := tustats.DefaultEncodeOptions()
	return &Config{
		TUStats: TUStatsConfig{
			Enabled:           false,
			StatsFile:         filepath.Join("${CACHE_DIR}", "tustats", "tu_stats.db"),
			Engine:            string(statstore.EngineSQLite),
			QueueCapacity:     recorder.DefaultQueueCapacity,
			DrainTimeout:      recorder.DefaultDrainTimeout,
			Compression:       encoding.Compression.String(),
			CompressThreshold: encoding.CompressThreshold,
			PrefixRule:        rank.DefaultRule().String(),
		},
		LogLevel: "info",
	}
}

// Load loads the file named by TUSTATS_CONFIG. When the variable is
// unset Load returns Default with variables expanded, since stats are
// optional and off by default.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads a configuration file over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// JSON is a subset of YAML, so stripping comments and trailing
	// commas is all a JSONC file needs.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		// An empty file leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":      os.Getenv("HOME"),
		"CACHE_DIR": cacheDir(),
	}
	c.TUStats.StatsFile = expandVars(c.TUStats.StatsFile, vars)
}

// cacheDir is the user cache directory, or the system temporary
// directory when the platform has none.
func cacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	stats := c.TUStats
	if stats.Enabled && stats.StatsFile == "" {
		errs = append(errs, fmt.Errorf("tu_stats.stats_file is required when tu_stats.enabled is true"))
	}
	if _, err := statstore.ParseEngine(stats.Engine); err != nil {
		errs = append(errs, fmt.Errorf("tu_stats.engine: %w", err))
	}
	if stats.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("tu_stats.queue_capacity must be at least 1, got %d", stats.QueueCapacity))
	}
	if stats.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tu_stats.drain_timeout must be positive, got %s", stats.DrainTimeout))
	}
	if _, err := compress.ParseTag(stats.Compression); err != nil {
		errs = append(errs, fmt.Errorf("tu_stats.compression: %w", err))
	}
	if stats.CompressThreshold < 0 {
		errs = append(errs, fmt.Errorf("tu_stats.compress_threshold must not be negative, got %d", stats.CompressThreshold))
	}
	if _, err := rank.ParseRule(stats.PrefixRule); err != nil {
		errs = append(errs, fmt.Errorf("tu_stats.prefix_rule: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level parses LogLevel. An empty value is info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// StoreConfig builds the statstore configuration. It assumes Validate
// has passed; invalid fields fall back to their defaults.
func (s TUStatsConfig) StoreConfig(logger *slog.Logger) statstore.Config {
	engine, err := statstore.ParseEngine(s.Engine)
	if err != nil {
		engine = statstore.EngineSQLite
	}
	tag, err := compress.ParseTag(s.Compression)
	if err != nil {
		tag = tustats.DefaultEncodeOptions().Compression
	}
	return statstore.Config{
		Path:   s.StatsFile,
		Engine: engine,
		Encoding: tustats.EncodeOptions{
			Compression:       tag,
			CompressThreshold: s.CompressThreshold,
		},
		Logger: logger,
	}
}

// Rule parses PrefixRule, falling back to the default rule.
func (s TUStatsConfig) Rule() rank.PrefixRule {
	rule, err := rank.ParseRule(s.PrefixRule)
	if err != nil {
		return rank.DefaultRule()
	}
	return rule
}
