// Package log writes application logs to a file. The TUI owns the
// terminal, so nothing may ever be printed to stdout or stderr while
// the program is running.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Setup directs log output to a dated file under dir. If the file cannot
// be opened, logging is silently discarded rather than corrupting the TUI.
func Setup(dir, level string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.SetOutput(io.Discard)
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		logger.SetOutput(io.Discard)
		return fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return nil
}

// WithField mirrors logrus.WithField on the package logger.
func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
