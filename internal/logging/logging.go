// Package logging configures the process-wide logrus logger.
//
// Maintenance runs are driven by cron, so the primary log destination
// is a plain-text file that operators tail after the fact; stderr is
// the fallback for interactive use. Per-item skip failures are logged
// at warn level, debug traces behind --verbose.
package logging

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
//
// logFile, when non-empty, is opened in append mode and becomes the log
// destination; the file is created with 0644 if missing. verbose lowers
// the level to debug.
//
// The returned closer flushes nothing (logrus writes synchronously) but
// releases the file handle; callers defer it from main.
func Setup(verbose bool, logFile string) (func(), error) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		// Cron log files have no TTY; forcing colors off keeps the
		// file grep-able regardless of how the command was invoked.
		DisableColors: true,
	})

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if logFile == "" {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}
	log.SetOutput(f)

	return func() { _ = f.Close() }, nil
}
