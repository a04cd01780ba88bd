// Package logging centralizes log setup at process startup, the way the
// teacher daemon redirects its logger once in main before doing anything
// else -- this daemon has no terminal UI to protect, so output stays on
// stderr, but the single-point-of-setup idiom carries over.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide logger. quiet restricts output to error
// level and above; otherwise info level and above (spec §6 "quiet").
func New(quiet bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if quiet {
		l.SetLevel(logrus.ErrorLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}
