package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns the application logger: full-timestamp text output on stdout.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}
