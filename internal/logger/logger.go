// Package logger configures the process-wide logrus logger.
//
// Log output goes to standard error so reports printed on standard
// output stay pipeable, and is mirrored to a file when a log directory
// is configured.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const logFileName = "max_pain_calculator.log"

// Setup applies the configured verbosity and attaches the log file
// under dir. An empty dir disables file logging. Unknown levels fall
// back to info; file problems are reported but never block startup.
func Setup(level, dir string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
		log.Warnf("unknown log level %q, using info", level)
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	if dir == "" {
		return
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warnf("could not create log directory %s: %v", dir, err)
		return
	}

	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Warnf("could not open log file: %v", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
}
