// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger provides the shared structured logger for the CLI
// layer. Core packages stay log-free and report progress through an
// injected io.Writer instead.
package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Log is the application logger.
var Log = logrus.WithFields(logrus.Fields{"app": "seqtriage"})

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
}

// SetLevel applies a level name such as "debug", "info", or "warn".
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	return nil
}
