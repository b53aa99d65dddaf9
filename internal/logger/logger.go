// Package logger configures the zerolog output shared by every command.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a console logger writing to w at the named level. Unknown or
// empty levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Setup installs a stderr console logger as the global zerolog logger and
// returns it.
func Setup(level string) zerolog.Logger {
	l := New(os.Stderr, level)
	log.Logger = l
	return l
}

// SetupFile is Setup for full-screen programs: logs go to path so they do not
// tear the terminal UI. The returned closer releases the file.
func SetupFile(path, level string) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	l := New(f, level)
	log.Logger = l
	return l, f, nil
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
