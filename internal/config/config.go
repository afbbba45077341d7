// Package config loads jtdguard CLI and server settings from an optional
// YAML file and JTDGUARD_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/reoring/jtdguard"
	"github.com/reoring/jtdguard/jtd"
)

// DefaultFile is read when Load is given no path and the file exists.
const DefaultFile = "jtdguard.yaml"

// EnvPrefix prefixes environment overrides; "__" separates nested keys
// (JTDGUARD_SERVER__ADDR=:9090).
const EnvPrefix = "JTDGUARD_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Bindings  string          `koanf:"bindings"`
	Language  string          `koanf:"language"`
	Validator ValidatorConfig `koanf:"validator"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr         string `koanf:"addr"`
	MaxBodyBytes int64  `koanf:"max_body_bytes"`
}

type ValidatorConfig struct {
	PreSerialized bool `koanf:"pre_serialized"`
	// SampleCheck extends build-time sample checks to typed bindings.
	SampleCheck         bool `koanf:"sample_check"`
	Timestamps          bool `koanf:"timestamps"`
	UseNumber           bool `koanf:"use_number"`
	RejectDuplicateKeys bool `koanf:"reject_duplicate_keys"`
	MaxDepth            int  `koanf:"max_depth"`
	FailFast            bool `koanf:"fail_fast"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// Load reads path (or DefaultFile when path is empty and present), then
// applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	defaults := map[string]any{
		"server.addr":         ":8080",
		"language":            "en",
		"log.level":           "info",
		"log.format":          "text",
		"validator.max_depth": jtd.DefaultMaxDepth,
	}
	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Language {
	case "en", "ja":
	default:
		return fmt.Errorf("config: unsupported language %q", c.Language)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	if c.Validator.MaxDepth < 0 {
		return fmt.Errorf("config: validator.max_depth must not be negative")
	}
	return nil
}

// CompilerOptions returns the jtd compiler settings.
func (v ValidatorConfig) CompilerOptions() jtd.Options {
	return jtd.Options{
		Timestamps:          v.Timestamps,
		UseNumber:           v.UseNumber,
		RejectDuplicateKeys: v.RejectDuplicateKeys,
		MaxDepth:            v.MaxDepth,
		FailFast:            v.FailFast,
	}
}

// Options returns the jtdguard options for these settings.
func (v ValidatorConfig) Options(logger *slog.Logger) []jtdguard.Option {
	return []jtdguard.Option{
		jtdguard.WithCompilerOptions(v.CompilerOptions()),
		jtdguard.WithPreSerialized(v.PreSerialized),
		jtdguard.WithSampleCheck(v.SampleCheck),
		jtdguard.WithLogger(logger),
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return lv, nil
}

// Logger builds a slog.Logger writing to w.
func (l LogConfig) Logger(w io.Writer) (*slog.Logger, error) {
	lv, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lv}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
