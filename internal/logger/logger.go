// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init is called so that
// packages and tests never see a nil logger.
var Log = logrus.New()

// Init configures the shared logger. LOG_LEVEL and LOG_FORMAT environment
// variables take precedence over the passed values. A nil out keeps stderr.
func Init(level, format string, out io.Writer) {
	if env, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = env
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)

	if env, ok := os.LookupEnv("LOG_FORMAT"); ok {
		format = env
	}
	if strings.ToLower(format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"component": component})
}
