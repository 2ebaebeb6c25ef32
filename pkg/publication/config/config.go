// Package config holds pubtool settings.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-publication/pkg/publication/codec"
)

// Option applies configuration to a ToolConfig instance.
type Option func(*ToolConfig) error

// ToolConfig controls how pubtool writes documents and logs.
type ToolConfig struct {
	Format    string `env:"PUBTOOL_FORMAT" env-description:"output format: json or cbor"`
	Layout    string `env:"PUBTOOL_LAYOUT" env-description:"block layout: kinds or tagged"`
	Compress  bool   `env:"PUBTOOL_COMPRESS" env-description:"zstd-compress output"`
	Indent    bool   `env:"PUBTOOL_INDENT" env-description:"pretty-print JSON output"`
	LogLevel  string `env:"PUBTOOL_LOG_LEVEL" env-description:"debug, info, warn or error"`
	LogFormat string `env:"PUBTOOL_LOG_FORMAT" env-description:"text or json"`
}

// Load constructs a ToolConfig by applying the supplied options on top of defaults.
func Load(opts ...Option) (*ToolConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ToolConfig {
	return ToolConfig{
		Format:    string(codec.FormatJSON),
		Layout:    string(codec.LayoutKinds),
		Indent:    true,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// WithEnv applies PUBTOOL_* environment variables. Unset variables keep the
// current value.
func WithEnv() Option {
	return func(c *ToolConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}

// WithFormat sets the output format.
func WithFormat(format string) Option {
	return func(c *ToolConfig) error {
		c.Format = format
		return nil
	}
}

// WithLayout sets the block layout.
func WithLayout(layout string) Option {
	return func(c *ToolConfig) error {
		c.Layout = layout
		return nil
	}
}

// WithCompression toggles zstd output.
func WithCompression(enabled bool) Option {
	return func(c *ToolConfig) error {
		c.Compress = enabled
		return nil
	}
}

// WithLogLevel sets the minimum log level.
func WithLogLevel(level string) Option {
	return func(c *ToolConfig) error {
		c.LogLevel = level
		return nil
	}
}

// Validate validates the tool configuration
func (c *ToolConfig) Validate() error {
	if _, err := codec.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := codec.ParseLayout(c.Layout); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be 'text' or 'json', got %q", c.LogFormat)
	}
	return nil
}

// CodecOptions converts the settings into encoder options.
func (c *ToolConfig) CodecOptions() (codec.Options, error) {
	format, err := codec.ParseFormat(c.Format)
	if err != nil {
		return codec.Options{}, err
	}
	layout, err := codec.ParseLayout(c.Layout)
	if err != nil {
		return codec.Options{}, err
	}
	return codec.Options{
		Format:   format,
		Layout:   layout,
		Compress: c.Compress,
		Indent:   c.Indent,
	}, nil
}

// NewLogger builds a slog logger writing to w.
func (c *ToolConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Describe lists the environment variables understood by WithEnv.
func Describe() string {
	var cfg ToolConfig
	header := "ENVIRONMENT VARIABLES:"
	text, err := cleanenv.GetDescription(&cfg, &header)
	if err != nil {
		return ""
	}
	return text
}

func (c *ToolConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
