// Package debug provides logging and diagnostics for the plugin adapters.
package debug

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	// LogLevelDebug is for detailed debugging information.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is for general informational messages.
	LogLevelInfo
	// LogLevelWarn is for warning messages.
	LogLevelWarn
	// LogLevelError is for error messages.
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name as written in config files.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "off", "none":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelOff:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is a leveled logger backed by logrus. Loggers derived with
// WithField share the level and output of their parent.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// DebugEnv turns on debug logging for the default logger when set to a
// true value.
const DebugEnv = "AAPGO_DEBUG"

var defaultLogger atomic.Pointer[Logger]

func init() {
	l := New(os.Stderr, "")
	if on, err := strconv.ParseBool(os.Getenv(DebugEnv)); err == nil && on {
		l.SetLevel(LogLevelDebug)
	}
	defaultLogger.Store(l)
}

// New creates a logger writing text records to output. A non-empty
// component is attached to every record.
func New(output io.Writer, component string) *Logger {
	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	entry := logrus.NewEntry(base)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return &Logger{base: base, entry: entry}
}

// SetOutput sets the output destination for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.base.SetLevel(level.logrus())
}

// Level returns the minimum log level.
func (l *Logger) Level() LogLevel {
	switch l.base.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return LogLevelDebug
	case logrus.InfoLevel:
		return LogLevelInfo
	case logrus.WarnLevel:
		return LogLevelWarn
	case logrus.ErrorLevel:
		return LogLevelError
	default:
		return LogLevelOff
	}
}

// IsEnabled reports whether records at level would be written.
func (l *Logger) IsEnabled(level LogLevel) bool {
	return level != LogLevelOff && l.base.IsLevelEnabled(level.logrus())
}

// WithField returns a logger that attaches key=value to every record.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField(key, value)}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Global logger functions

// Default returns the default logger instance.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(level LogLevel) {
	Default().SetLevel(level)
}

// Debug logs a debug message using the default logger.
func Debug(format string, args ...interface{}) {
	Default().Debug(format, args...)
}

// Info logs an informational message using the default logger.
func Info(format string, args ...interface{}) {
	Default().Info(format, args...)
}

// Warn logs a warning message using the default logger.
func Warn(format string, args ...interface{}) {
	Default().Warn(format, args...)
}

// Error logs an error message using the default logger.
func Error(format string, args ...interface{}) {
	Default().Error(format, args...)
}

// WarnIf logs a warning message if the condition is true.
func WarnIf(condition bool, format string, args ...interface{}) {
	if condition {
		Default().Warn(format, args...)
	}
}
