package common

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide logger. Every line carries the session id generated on first use.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		l := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-viewer",
		})
		l.SetLevel(log.InfoLevel)
		logger = l.With("session", uuid.NewString())
	})
	return logger
}

// SetLogLevel parses level ("debug", "info", "warn", "error") and applies it to the process logger.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - error: an error if the level name is not recognized
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger().SetLevel(lvl)
	return nil
}

// LogDebug logs msg with alternating key/value pairs at debug level.
func LogDebug(msg string, keyvals ...any) {
	l := Logger()
	l.Helper()
	l.Debug(msg, keyvals...)
}

// LogInfo logs msg at info level.
func LogInfo(msg string, keyvals ...any) {
	l := Logger()
	l.Helper()
	l.Info(msg, keyvals...)
}

// LogWarn logs msg at warn level.
func LogWarn(msg string, keyvals ...any) {
	l := Logger()
	l.Helper()
	l.Warn(msg, keyvals...)
}

// LogError logs msg at error level.
func LogError(msg string, keyvals ...any) {
	l := Logger()
	l.Helper()
	l.Error(msg, keyvals...)
}

// CloseLogged closes c and logs a failure at warn level instead of returning it. It is meant
// for deferred and cleanup-path closes where the error has nowhere else to go.
func CloseLogged(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		LogWarn("close "+what+" failed", "err", err)
	}
}
