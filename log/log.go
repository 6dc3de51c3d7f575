package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// NewRootLogger builds the process-wide logger writing to w in one of the
// json, console (alias auto) or logfmt formats.
func NewRootLogger(format string, level string, w io.Writer) (*zap.Logger, error) {
	enc, err := newEncoder(format)
	if err != nil {
		return nil, err
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// NewRootLoggerWithFile writes console output to stdout and to the file at
// logFile, creating parent directories as needed.
func NewRootLoggerWithFile(logFile string, level string) (*zap.Logger, error) {
	f, err := openLogFile(logFile)
	if err != nil {
		return nil, err
	}

	mw := io.MultiWriter(os.Stdout, f)

	return NewRootLogger("console", level, mw)
}

// NewFileLogger writes only to the file at logFile. Commands that print
// their result to stdout use it.
func NewFileLogger(logFile string, format string, level string) (*zap.Logger, error) {
	f, err := openLogFile(logFile)
	if err != nil {
		return nil, err
	}

	return NewRootLogger(format, level, f)
}

func openLogFile(logFile string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

// ParseLevel maps a configured level name onto a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "panic":
		return zap.PanicLevel, nil
	case "fatal":
		return zap.FatalLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "debug", "trace":
		return zap.DebugLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

func newEncoder(format string) (zapcore.Encoder, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(timeLayout))
	}
	cfg.LevelKey = "lvl"

	switch format {
	case "json":
		return zapcore.NewJSONEncoder(cfg), nil
	case "auto", "console":
		return zapcore.NewConsoleEncoder(cfg), nil
	case "logfmt":
		return zaplogfmt.NewEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unrecognized log format %q", format)
	}
}
