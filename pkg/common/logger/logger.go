package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before Init so packages can log from tests; Init switches it
// to the service's format and level.
var Log = logrus.New()

// Init configures Log from LOG_LEVEL (default info) and LOG_FORMAT. Services
// log JSON; LOG_FORMAT=text gives human readable lines for the CLI.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(formatter(os.Getenv("LOG_FORMAT")))

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
}

func formatter(format string) logrus.Formatter {
	if strings.EqualFold(format, "text") {
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"}
	}
	return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// WithClaim tags entries with the claim they concern.
func WithClaim(claimID string) *logrus.Entry {
	return Log.WithField("claim_id", claimID)
}
