package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Release mode emits JSON for log shipping;
// anything else keeps the human-readable text formatter.
func New(mode string, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if mode == "release" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}
