package license

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	slog *slog.Logger
}

var _ cron.Logger = cronLogger{}

// Info logs routine scheduler messages at debug level
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.slog.Debug("cron: "+msg, keysAndValues...)
}

// Error logs scheduler failures, including recovered tick panics
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)
	l.slog.Error("cron: "+msg, args...)
}
