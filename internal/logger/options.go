package logger

import (
	"io"
	"log/slog"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type config struct {
	level  slog.Level
	output io.Writer
	format Format
}

// Option configures New.
type Option func(*config)

// WithLevel drops records below level.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithOutput sends records to w.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithFormat picks text or JSON records. Unknown formats write text.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}
