package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options selects the level and encoding of the root logger
type Options struct {
	Level  string // trace, debug, info, warn, error; empty means info
	Format string // console or json; empty means console
}

// New builds the root logger writing to w
func New(opts Options, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	switch strings.ToLower(opts.Format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", opts.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// OpenFile opens (or creates) a log file for appending, creating parent directories
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Component tags a logger with the subsystem it belongs to
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

// WithTurn attaches a fresh turn id to the logger and stores it in ctx.
// Code below the turn reads it back with zerolog.Ctx.
func WithTurn(ctx context.Context, base zerolog.Logger) (context.Context, string) {
	turnID := uuid.NewString()
	logger := base.With().Str("turn_id", turnID).Logger()
	return logger.WithContext(ctx), turnID
}
