package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options is a function type that can be used to configure the logger
type Options func(*LogWrapper)

// WithLevel configures the log level. If level is not specified, default to InfoLevel
func WithLevel(level string) Options {
	return func(lw *LogWrapper) {
		l, err := logrus.ParseLevel(level)
		if err != nil {
			lw.entry.Logger.SetLevel(logrus.InfoLevel)
		} else {
			lw.entry.Logger.SetLevel(l)
		}
	}
}

// WithOutput configures the output destination
func WithOutput(output io.Writer) Options {
	return func(lw *LogWrapper) {
		lw.entry.Logger.SetOutput(output)
	}
}

// WithNullLogger sets the logger to discard all output
func WithNullLogger() Options {
	return func(lw *LogWrapper) {
		lw.entry.Logger.SetOutput(io.Discard)
	}
}

// New constructs a logger from options, used mainly by tests that want a
// silent or redirected logger without touching the global one.
func New(opts ...Options) Logger {
	lw := &LogWrapper{entry: logrus.NewEntry(logrus.New())}
	for _, opt := range opts {
		opt(lw)
	}
	return lw
}
