// Package stdlogger adapts the global zerolog logger to printf style logger
// interfaces, e.g. the writer of the gorm SQL logger.
package stdlogger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to the global zerolog logger.
type Logger struct {
	// level used by Printf
	level zerolog.Level
}

// New creates a Logger whose Printf writes at warn level.
func New() *Logger {
	return &Logger{level: zerolog.WarnLevel}
}

// NewWithLevel creates a Logger whose Printf writes at the given level.
func NewWithLevel(level zerolog.Level) *Logger {
	return &Logger{level: level}
}

// Printf implements gorm's logger.Writer.
func (l *Logger) Printf(format string, args ...any) {
	log.WithLevel(l.level).Msgf(strings.TrimSpace(format), args...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	log.Error().Msgf(format, args...)
}
