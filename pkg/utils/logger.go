package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger configures the shared JSON logger. Unknown levels fall back to
// info.
func InitLogger(level string) *logrus.Logger {
	Logger = logrus.New()

	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)

	Logger.SetOutput(os.Stdout)
	return Logger
}
