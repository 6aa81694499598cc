package log

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

const (
	// default log level
	defaultLogLevel = logrus.InfoLevel

	// log file name
	globalLogFileName = "global.log"
	// default log directory
	logDir = "nodelogs"
)

var (
	// Global is the logger instance used by the application when no
	// component-scoped logger has been constructed.
	Global Logger

	// default logfile path
	defaultLogFilePath = "./" + logDir + "/" + globalLogFileName
)

func init() {
	Global = createStandardLogger(defaultLogFilePath, defaultLogLevel.String(), true)
}

// SetGlobalLogger redirects the global logger to the given file and level.
func SetGlobalLogger(logFilename string, logLevel string) {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	Global = createStandardLogger(logFilename, logLevel, true)
}

// NewLogger constructs a component logger writing to its own rotated file.
func NewLogger(logFilename string, logLevel string) Logger {
	if logFilename == "" {
		logFilename = defaultLogFilePath
	}
	logger := createStandardLogger(logFilename, logLevel, false)
	logger.WithFields(Fields{
		"path":  logFilename,
		"level": logLevel,
	}).Info("Component logger started")
	return logger
}

func createStandardLogger(logFilename string, logLevel string, stdOut bool) Logger {
	logger := logrus.New()
	output := &lumberjack.Logger{
		Filename:   logFilename,
		MaxSize:    500, // megabytes
		MaxBackups: 3,
		MaxAge:     28, //days
	}

	if stdOut {
		logger.SetOutput(io.MultiWriter(output, os.Stdout))
	} else {
		logger.SetOutput(output)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		PadLevelText:    true,
		FullTimestamp:   true,
		TimestampFormat: "01-02|15:04:05.000",
	})
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = defaultLogLevel
	}
	logger.SetLevel(level)
	return &LogWrapper{entry: logrus.NewEntry(logger)}
}
