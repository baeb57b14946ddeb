package utils

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	defaultLoggerOnce sync.Once
	defaultLogger     *log.Logger
)

// NewLogger creates logger for one conversion pass
func NewLogger(w io.Writer, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          prefix,
		Level:           log.InfoLevel,
	})
}

// DefaultLogger is shared stderr logger used when caller does not provide one.
// It is never reconfigured after creation.
func DefaultLogger() *log.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(os.Stderr, "xobjconv")
	})
	return defaultLogger
}

// DiscardLogger drops everything, used by tests
func DiscardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func LoggerOr(l *log.Logger) *log.Logger {
	if l == nil {
		return DefaultLogger()
	}
	return l
}
