// Package logger configures process-wide structured logging.
package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Setup applies the configured log level and switches to JSON output.
// Unknown levels fall back to info.
func Setup(level string) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// New returns a component-scoped log entry.
func New(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
