package winedaemon

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogFormat is the output format of a logger created by NewLogger.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogConfig configures NewLogger. The zero value logs warnings and
// errors as text.
type LogConfig struct {
	// Level is one of debug, info, warn or error. Default: warn
	Level string

	// Format is text or json. Default: text
	Format LogFormat
}

// Validate returns an error if the level or format is not recognized.
func (o LogConfig) Validate() error {
	_, err := parseLevel(o.Level)
	if err != nil {
		return err
	}

	switch LogFormat(strings.ToLower(string(o.Format))) {
	case "", LogFormatText, LogFormatJSON:
		return nil
	}

	return fmt.Errorf("unknown log format '%s'", o.Format)
}

// NewLogger returns a logger writing to w. Unrecognized levels fall
// back to warn and unrecognized formats fall back to text; call
// Validate to reject them instead.
func NewLogger(config LogConfig, w io.Writer) *slog.Logger {
	level, err := parseLevel(config.Level)
	if err != nil {
		level = slog.LevelWarn
	}

	options := &slog.HandlerOptions{
		Level: level,
	}

	if LogFormat(strings.ToLower(string(config.Format))) == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, options))
	}

	return slog.New(slog.NewTextHandler(w, options))
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return slog.LevelWarn, fmt.Errorf("unknown log level '%s'", level)
}
