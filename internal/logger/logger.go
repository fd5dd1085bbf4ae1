// Package logger builds the zap loggers used by the binaries.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log encoder.
type Format string

const (
	// FormatConsole is the human-readable console encoder.
	FormatConsole Format = "console"
	// FormatJSON is the structured JSON encoder.
	FormatJSON Format = "json"
)

// Component names used with For.
const (
	ComponentDemo    = "demo"
	ComponentDriver  = "driver"
	ComponentMachine = "machine"
	ComponentMetrics = "metrics"
	ComponentStates  = "states"
)

// ParseLevel converts a level name (debug, info, warn, error) into a zap
// level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat converts a format name into a Format. Unknown names map to
// FormatConsole.
func ParseFormat(format string) Format {
	if Format(strings.ToLower(format)) == FormatJSON {
		return FormatJSON
	}
	return FormatConsole
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000 MST"))
}

// New creates a zap logger writing to stdout.
func New(level string, format Format) *zap.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a zap logger writing to w.
func NewWithWriter(w io.Writer, level string, format Format) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch format {
	case FormatJSON:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core, zap.AddCaller())
}

// For returns a child of log named after component.
func For(log *zap.Logger, component string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.Named(component)
}
