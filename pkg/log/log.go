// Package log centralizes slog configuration for taxfolio.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log output encoding.
type Format string

const (
	// Text is a human-readable key=value format.
	Text Format = "text"
	// JSON is a structured format for machine processing.
	JSON Format = "json"
)

// Config holds the logger settings.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	Level string
	// Format selects text or json output.
	Format Format
	// Output is where log records are written.
	Output io.Writer
	// AddSource attaches the source location to each record.
	AddSource bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: Text,
		Output: os.Stderr,
	}
}

// Init installs the default logger, honoring TAXFOLIO_LOG_LEVEL,
// TAXFOLIO_LOG_FORMAT and TAXFOLIO_LOG_SOURCE environment overrides.
func Init() {
	cfg := DefaultConfig()
	if v := os.Getenv("TAXFOLIO_LOG_LEVEL"); v != "" {
		cfg.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TAXFOLIO_LOG_FORMAT"); v != "" {
		cfg.Format = Format(strings.ToLower(v))
	}
	if os.Getenv("TAXFOLIO_LOG_SOURCE") == "true" {
		cfg.AddSource = true
	}
	InitWithConfig(cfg)
}

// InitWithConfig installs a logger built from cfg as the slog default.
func InitWithConfig(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// WithAsset returns a logger that tags every record with the asset being
// processed, so interleaved per-asset pipelines stay readable.
func WithAsset(asset string) *slog.Logger {
	return slog.With("asset", asset)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
