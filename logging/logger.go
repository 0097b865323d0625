package logging

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/fabgitops/operator/common"
)

// Logger implements common.LoggerInterface and common.LoggerInterfaceHexdump
// on top of a logrus.Entry. It replaces the fmt.Fprint-backed logger the
// Modbus library shipped with, while keeping the same call sites (every
// package in this module depends only on common.LoggerInterface).
type Logger struct {
	entry *logrus.Entry
}

// Option is a function that configures a Logger
type Option func(*logrus.Logger)

// WithLevel sets the log level
func WithLevel(level common.LogLevel) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(toLogrusLevel(level))
	}
}

// WithOutput sets the output writer for the logger
func WithOutput(w *os.File) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithJSONFormat switches the logger to JSON line output, used in production
// deployments where logs are shipped to a collector rather than a terminal.
func WithJSONFormat() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
}

// NewLogger creates a new logrus-backed logger with the given options.
// The default level is Info, matching the teacher logger's default.
func NewLogger(options ...Option) *Logger {
	base := logrus.New()
	base.SetLevel(logrus.InfoLevel)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	for _, option := range options {
		option(base)
	}

	return &Logger{entry: logrus.NewEntry(base)}
}

func toLogrusLevel(level common.LogLevel) logrus.Level {
	switch level {
	case common.LevelTrace:
		return logrus.TraceLevel
	case common.LevelDebug:
		return logrus.DebugLevel
	case common.LevelInfo:
		return logrus.InfoLevel
	case common.LevelWarn:
		return logrus.WarnLevel
	case common.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.PanicLevel + 1 // above Panic: effectively disables output
	}
}

func fromLogrusLevel(level logrus.Level) common.LogLevel {
	switch level {
	case logrus.TraceLevel:
		return common.LevelTrace
	case logrus.DebugLevel:
		return common.LevelDebug
	case logrus.InfoLevel:
		return common.LevelInfo
	case logrus.WarnLevel:
		return common.LevelWarn
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return common.LevelError
	default:
		return common.LevelNone
	}
}

// Trace logs a trace message
func (l *Logger) Trace(ctx context.Context, format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// WithFields returns a new logger with the given fields merged in
func (l *Logger) WithFields(fields map[string]interface{}) common.LoggerInterface {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() common.LogLevel {
	return fromLogrusLevel(l.entry.Logger.GetLevel())
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level common.LogLevel) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

// Hexdump logs a hexdump of the given data at trace level.
// Kept for parity with common.LoggerInterfaceHexdump, used by the transport
// layer's wire-level trace logging.
func (l *Logger) Hexdump(ctx context.Context, data []byte) {
	if l.entry.Logger.GetLevel() < logrus.TraceLevel {
		return
	}

	hexdump := "offset   00 01 02 03 04 05 06 07 | 08 09 0a 0b 0c 0d 0e 0f\n"
	for i := 0; i < len(data); i += 16 {
		hexdump += fmt.Sprintf("%08x", i)
		for j := 0; j < 16; j++ {
			if j == 8 {
				hexdump += " |"
			}
			hexdump += " "
			if i+j < len(data) {
				hexdump += fmt.Sprintf("%02x", data[i+j])
			} else {
				hexdump += "  "
			}
		}
		hexdump += "\n"
	}

	l.entry.Trace("HEXDUMP\n" + hexdump)
}
