package core

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Dir string `toml:"dir"` // wallet data root

	Catalog CatalogConfig `toml:"catalog"`
	Archive ArchiveConfig `toml:"archive"`
	Limits  LimitsConfig  `toml:"limits"`
	Log     LogConfig     `toml:"log"`
}

type CatalogConfig struct {
	Dir string `toml:"dir"`
}

type ArchiveConfig struct {
	Transform string `toml:"transform"` // "none" or "zstd"
	ZstdLevel int    `toml:"zstd_level"`
}

// LimitsConfig can only tighten the codec limits: zero selects the default,
// larger values are rejected by ValidateConfig.
type LimitsConfig struct {
	MaxPayloadBytes uint64 `toml:"max_payload_bytes"`
	MaxItems        int    `toml:"max_items"` // per list inside compound objects
}

// WithDefaults replaces zero limits with the codec defaults.
func (l LimitsConfig) WithDefaults() LimitsConfig {
	if l.MaxPayloadBytes == 0 {
		l.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if l.MaxItems == 0 {
		l.MaxItems = DefaultMaxItems
	}
	return l
}

type LogConfig struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

const (
	DefaultMaxPayloadBytes = 64 << 20
	DefaultMaxItems        = 1 << 16
	DefaultZstdLevel       = 3
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Archive: ArchiveConfig{
			Transform: "zstd",
			ZstdLevel: DefaultZstdLevel,
		},
		Limits: LimitsConfig{
			MaxPayloadBytes: DefaultMaxPayloadBytes,
			MaxItems:        DefaultMaxItems,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a TOML config file on top of DefaultConfig. Keys absent
// from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config (%s): %w", path, err)
	}

	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}
	if meta.IsDefined("catalog", "dir") {
		cfg.Catalog.Dir = strings.TrimSpace(raw.Catalog.Dir)
	}
	if meta.IsDefined("archive", "transform") {
		cfg.Archive.Transform = strings.ToLower(strings.TrimSpace(raw.Archive.Transform))
	}
	if meta.IsDefined("archive", "zstd_level") {
		cfg.Archive.ZstdLevel = raw.Archive.ZstdLevel
	}
	if meta.IsDefined("limits", "max_payload_bytes") {
		cfg.Limits.MaxPayloadBytes = raw.Limits.MaxPayloadBytes
	}
	if meta.IsDefined("limits", "max_items") {
		cfg.Limits.MaxItems = raw.Limits.MaxItems
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = raw.Log.Level
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateConfig(cfg Config) error {
	switch cfg.Archive.Transform {
	case "", "none", "zstd":
	default:
		return fmt.Errorf("%w: unsupported archive transform %q", ErrInvalidInput, cfg.Archive.Transform)
	}
	if cfg.Limits.MaxItems < 0 {
		return fmt.Errorf("%w: limits.max_items must not be negative", ErrInvalidInput)
	}
	if cfg.Limits.MaxItems > DefaultMaxItems {
		return fmt.Errorf("%w: limits.max_items above %d", ErrInvalidInput, DefaultMaxItems)
	}
	if cfg.Limits.MaxPayloadBytes > DefaultMaxPayloadBytes {
		return fmt.Errorf("%w: limits.max_payload_bytes above %d", ErrInvalidInput, uint64(DefaultMaxPayloadBytes))
	}
	return nil
}
