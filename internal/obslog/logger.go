// Package obslog provides the one structured logger every command and
// package in modelserve logs through, replacing the teacher's bare
// log.Printf call sites with logrus fields a log aggregator can parse.
package obslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Configure() adjusts its level and
// formatter; packages that don't need that should just call Log
// directly.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Configure sets the log level from a string such as "debug", "info",
// "warn", falling back to info on an unrecognized value.
func Configure(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// ModelLoaded logs the one structured line a model load emits: the
// Go analogue of the teacher's logModelLoadInfo.
func ModelLoaded(modelID string, files []string, rssMB float64) {
	Log.WithFields(logrus.Fields{
		"repo":   modelID,
		"files":  files,
		"rss_mb": rssMB,
	}).Info("model loaded")
}
