// Package logging builds the zerolog logger shared by the CLI and the server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tasklock/internal/config"
)

// New returns a logger writing to w at the configured level and format.
func New(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg == nil {
		cfg = config.Default()
	}
	if w == nil {
		w = os.Stderr
	}
	zerolog.TimestampFieldName = "timestamp"
	if cfg.Log.Format != "json" {
		cw := zerolog.NewConsoleWriter()
		cw.Out = w
		cw.TimeFormat = time.DateTime
		w = cw
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.Log.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
