package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger and installs it as the global zerolog
// logger. format is "console" or "json".
func New(app, level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if level == "" {
		lvl = zerolog.InfoLevel
	}

	switch format {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, nil
}
