/*
Package logging configures structured logging for the service.

PURPOSE:
  One logrus logger for the whole process, plus two adapters that feed it:
  an engine Observer for classification diagnostics and an HTTP middleware
  for request logs.

LEVELS:
  - info:  startup, shutdown, imports, one line per request
  - debug: per-unit engine decisions (lease selected, inheritance, bypasses)

SEE ALSO:
  - generic/observer.go: Engine events
  - config/config.go: log.level setting
*/
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. InitLogger configures it.
var Logger = logrus.New()

type appNameHook struct {
	appName string
}

// Levels implements logrus.Hook.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// InitLogger configures Logger. LOG_LEVEL overrides level when set.
func InitLogger(appName, level string) {
	Configure(Logger, appName, level, os.Stdout)
}

// Configure applies output, level, format and the app name prefix to l.
// An unknown level falls back to info with a warning.
func Configure(l *logrus.Logger, appName, level string, out io.Writer) {
	l.SetOutput(out)

	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	levelStr := strings.ToLower(strings.TrimSpace(level))
	if levelStr == "" {
		levelStr = "info"
	}
	lvl, err := logrus.ParseLevel(levelStr)
	if err != nil {
		l.Warnf("Invalid log level '%s', defaulting to INFO", levelStr)
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if appName != "" {
		l.AddHook(&appNameHook{appName})
	}
}
