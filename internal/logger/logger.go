package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the questiondb logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ZeroLogger implements the logging contract on top of zerolog.
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewZeroLogger creates a ZeroLogger that writes JSON lines to w.
func NewZeroLogger(w io.Writer, level zerolog.Level) *ZeroLogger {
	return &ZeroLogger{
		logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// NewConsoleLogger creates a ZeroLogger with human-readable output.
func NewConsoleLogger(w io.Writer, level zerolog.Level) *ZeroLogger {
	return NewZeroLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}, level)
}

func (l *ZeroLogger) Info(msg string, args ...any) {
	l.logger.Info().Msgf(msg, args...)
}

func (l *ZeroLogger) Warn(msg string, args ...any) {
	l.logger.Warn().Msgf(msg, args...)
}

func (l *ZeroLogger) Error(msg string, args ...any) {
	l.logger.Error().Msgf(msg, args...)
}

func (l *ZeroLogger) Debug(msg string, args ...any) {
	l.logger.Debug().Msgf(msg, args...)
}

// Default provides a global default logger writing to stdout at info level.
var Default Logger = NewConsoleLogger(os.Stdout, zerolog.InfoLevel)
