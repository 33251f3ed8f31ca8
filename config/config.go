// SPDX-License-Identifier: EPL-2.0

// Package config loads engine settings from defaults, an optional TOML
// file and SYLSEG_ environment variables, in that order.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SYLSEG_"

var (
	ErrInvalidLogLevel  = errors.New("config: invalid log level")
	ErrInvalidLogFormat = errors.New("config: log format must be text or json")
	ErrInvalidDetector  = errors.New("config: detector must be spectral or vad")
	ErrInvalidOnset     = errors.New("config: invalid onset parameters")
	ErrInvalidVAD       = errors.New("config: invalid VAD parameters")
	ErrIncompleteS3     = errors.New("config: S3 bucket and region must be set together")
)

// Detector names.
const (
	DetectorSpectral = "spectral"
	DetectorVAD      = "vad"
)

// Config holds every tunable of the engine and its front end.
type Config struct {
	// Logging
	LogLevel  string `toml:"log_level" env:"LOG_LEVEL" json:"log_level"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT" json:"log_format"` // "text" or "json"
	LogFile   bool   `toml:"log_file" env:"LOG_FILE" json:"log_file"`

	// Onset detection
	Detector  string  `toml:"detector" env:"DETECTOR" json:"detector"`
	FrameSize int     `toml:"frame_size" env:"FRAME_SIZE" json:"frame_size"`
	HopSize   int     `toml:"hop_size" env:"HOP_SIZE" json:"hop_size"`
	Delta     float64 `toml:"delta" env:"DELTA" json:"delta"`
	Wait      int     `toml:"wait" env:"WAIT" json:"wait"`
	Backtrack bool    `toml:"backtrack" env:"BACKTRACK" json:"backtrack"`

	VADMode         int `toml:"vad_mode" env:"VAD_MODE" json:"vad_mode"`
	VADFrameMs      int `toml:"vad_frame_ms" env:"VAD_FRAME_MS" json:"vad_frame_ms"`
	VADMinSilenceMs int `toml:"vad_min_silence_ms" env:"VAD_MIN_SILENCE_MS" json:"vad_min_silence_ms"`

	// External aligner; empty AlignerCommand selects the built-in report
	AlignerCommand string   `toml:"aligner_command" env:"ALIGNER_COMMAND" json:"aligner_command"`
	AlignerArgs    []string `toml:"aligner_args" env:"ALIGNER_ARGS" json:"aligner_args"`
	AlignerResult  string   `toml:"aligner_result" env:"ALIGNER_RESULT" json:"aligner_result"`

	// Optional S3 publishing
	S3Bucket           string `toml:"s3_bucket" env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `toml:"s3_region" env:"S3_REGION" json:"s3_region,omitempty"`
	S3Endpoint         string `toml:"s3_endpoint" env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Prefix           string `toml:"s3_prefix" env:"S3_PREFIX" json:"s3_prefix,omitempty"`
	AWSAccessKeyID     string `toml:"aws_access_key_id" env:"AWS_ACCESS_KEY_ID" json:"-"`
	AWSSecretAccessKey string `toml:"aws_secret_access_key" env:"AWS_SECRET_ACCESS_KEY" json:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Detector:        DetectorSpectral,
		FrameSize:       2048,
		HopSize:         512,
		Delta:           0.07,
		Wait:            3,
		VADMode:         2,
		VADFrameMs:      30,
		VADMinSilenceMs: 90,
		AlignerResult:   "forced_align.txt",
	}
}

// Load builds a Config from the defaults, the TOML file at path (skipped
// when path is empty) and the environment, then validates it.
func Load(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path, envconfig.OsLookuper())
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("config: unknown keys in %s: %v", path, keys)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}

	switch c.Detector {
	case DetectorSpectral:
		if c.FrameSize <= 0 || c.FrameSize&(c.FrameSize-1) != 0 {
			return fmt.Errorf("%w: frame size %d is not a power of two", ErrInvalidOnset, c.FrameSize)
		}
		if c.HopSize <= 0 || c.HopSize > c.FrameSize {
			return fmt.Errorf("%w: hop size %d", ErrInvalidOnset, c.HopSize)
		}
		if c.Delta < 0 || c.Wait < 0 {
			return fmt.Errorf("%w: delta %v wait %d", ErrInvalidOnset, c.Delta, c.Wait)
		}
	case DetectorVAD:
		if c.VADMode < 0 || c.VADMode > 3 {
			return fmt.Errorf("%w: mode %d", ErrInvalidVAD, c.VADMode)
		}
		switch c.VADFrameMs {
		case 10, 20, 30:
		default:
			return fmt.Errorf("%w: frame %d ms", ErrInvalidVAD, c.VADFrameMs)
		}
		if c.VADMinSilenceMs < 0 {
			return fmt.Errorf("%w: min silence %d ms", ErrInvalidVAD, c.VADMinSilenceMs)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDetector, c.Detector)
	}

	if (c.S3Bucket == "") != (c.S3Region == "") {
		return ErrIncompleteS3
	}

	return nil
}

// S3Enabled reports whether results should be published to S3.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// NewLogger returns a logrus logger writing to w (stderr when nil) with
// the configured level and formatter.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(c.LogFormat) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// String returns the config with credentials masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{LogLevel: %s, LogFormat: %s, LogFile: %t, Detector: %s, FrameSize: %d, HopSize: %d, Delta: %g, Wait: %d, Backtrack: %t, VADMode: %d, VADFrameMs: %d, VADMinSilenceMs: %d, AlignerCommand: %s, S3Bucket: %s, S3Region: %s, S3Endpoint: %s}",
		c.LogLevel,
		c.LogFormat,
		c.LogFile,
		c.Detector,
		c.FrameSize,
		c.HopSize,
		c.Delta,
		c.Wait,
		c.Backtrack,
		c.VADMode,
		c.VADFrameMs,
		c.VADMinSilenceMs,
		c.AlignerCommand,
		c.S3Bucket,
		c.S3Region,
		c.S3Endpoint,
	)
}
