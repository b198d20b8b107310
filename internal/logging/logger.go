// Package logging configures structured logging for the sync core.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root *logrus.Logger
	once sync.Once
)

// Init initializes the root logger. Safe to call more than once; only the
// first call wins.
func Init(out io.Writer, level string) {
	once.Do(func() {
		root = logrus.New()
		root.SetOutput(out)
		root.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		root.SetLevel(parseLevel(level))
	})
}

// Get returns the root logger, initializing it with defaults if needed.
func Get() *logrus.Logger {
	if root == nil {
		Init(os.Stderr, "info")
	}
	return root
}

// Component returns a logger entry tagged with a component name. All core
// packages log through this so records stay filterable by component.
func Component(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
