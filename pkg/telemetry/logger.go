// Package telemetry builds the logger, metrics and tracer the evaluators
// report to.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chazu/facet/pkg/config"
	"github.com/rs/zerolog"
)

// NewLogger creates a logger from cfg. A file output is opened for
// appending and stays open for the life of the process.
func NewLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	var writer io.Writer
	switch cfg.Output {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("telemetry: open log output: %w", err)
		}
		writer = file
	}
	return newLogger(writer, cfg)
}

func newLogger(writer io.Writer, cfg config.LogConfig) (zerolog.Logger, error) {
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("telemetry: %w", err)
		}
		level = l
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
