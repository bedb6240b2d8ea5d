package app

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Logger interface and implementations
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type NoopLogger struct{}

func (NoopLogger) Infof(component, format string, args ...interface{})  {}
func (NoopLogger) Errorf(component, format string, args ...interface{}) {}

// LogrusLogger tags every entry with a "component" field.
type LogrusLogger struct {
	log logrus.FieldLogger
}

// NewLogrusLogger writes to w in "text" or "json" format at the named level.
func NewLogrusLogger(w io.Writer, format, level string) (LogrusLogger, error) {
	l := logrus.New()
	l.Out = w

	switch strings.ToLower(format) {
	case "", "text":
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	case "json":
		l.Formatter = &logrus.JSONFormatter{}
	default:
		return LogrusLogger{}, errors.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return LogrusLogger{}, errors.Wrap(err, "parse log level")
	}
	l.Level = lvl

	return LogrusLogger{log: l}, nil
}

func (l LogrusLogger) Infof(component string, format string, args ...interface{}) {
	l.log.WithField("component", component).Infof(format, args...)
}

func (l LogrusLogger) Errorf(component string, format string, args ...interface{}) {
	l.log.WithField("component", component).Errorf(format, args...)
}
