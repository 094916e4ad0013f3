// Package logging writes leveled logs to a file, keeping stdout free for the
// interactive display.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger filters by level in front of a standard library logger
type Logger struct {
	min    Level
	l      *log.Logger
	closer io.Closer
}

// New opens (or appends to) the log file. An empty path logs to stderr.
func New(level, file string) (*Logger, error) {
	out := io.Writer(os.Stderr)
	var closer io.Closer
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f
	}
	return &Logger{
		min:    ParseLevel(level),
		l:      log.New(out, "", log.LstdFlags|log.Lmicroseconds),
		closer: closer,
	}, nil
}

func (lg *Logger) logf(level Level, tag, format string, args ...interface{}) {
	if level < lg.min {
		return
	}
	lg.l.Printf(tag+" "+format, args...)
}

func (lg *Logger) Debugf(format string, args ...interface{}) {
	lg.logf(LevelDebug, "DEBUG", format, args...)
}

func (lg *Logger) Infof(format string, args ...interface{}) {
	lg.logf(LevelInfo, "INFO", format, args...)
}

func (lg *Logger) Warnf(format string, args ...interface{}) {
	lg.logf(LevelWarn, "WARN", format, args...)
}

func (lg *Logger) Errorf(format string, args ...interface{}) {
	lg.logf(LevelError, "ERROR", format, args...)
}

// Close releases the log file, if one is open
func (lg *Logger) Close() error {
	if lg.closer != nil {
		return lg.closer.Close()
	}
	return nil
}
