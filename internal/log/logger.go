// Package log is the process-wide leveled logger.
//
// Calls take a message followed by alternating key/value pairs:
//
//	log.Info("admin registered", "email", email, "id", id)
//
// Output is produced by zap; the console format is the default and the JSON
// format is meant for log shippers.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger is a leveled key/value logger backed by a zap core.
type Logger struct {
	mu     sync.Mutex
	level  zap.AtomicLevel
	writer io.Writer
	format string
	sugar  *zap.SugaredLogger
}

var globalLogger = New(LevelInfo, os.Stdout, FormatConsole)

// New builds a Logger writing to w.
func New(level Level, w io.Writer, format string) *Logger {
	l := &Logger{
		level:  zap.NewAtomicLevelAt(level.zap()),
		writer: w,
		format: format,
	}
	l.rebuild()
	return l
}

func Debug(msg string, args ...interface{}) {
	globalLogger.log(LevelDebug, msg, args...)
}

func Info(msg string, args ...interface{}) {
	globalLogger.log(LevelInfo, msg, args...)
}

func Warn(msg string, args ...interface{}) {
	globalLogger.log(LevelWarn, msg, args...)
}

func Error(msg string, args ...interface{}) {
	globalLogger.log(LevelError, msg, args...)
}

func SetLevel(level Level) {
	globalLogger.SetLevel(level)
}

func SetWriter(w io.Writer) {
	globalLogger.SetWriter(w)
}

func SetFormat(format string) {
	globalLogger.SetFormat(format)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	_ = globalLogger.Sugar().Sync()
}

// Default returns the process-wide logger.
func Default() *Logger {
	return globalLogger
}

// ParseLevel maps a config string (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zap())
}

func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
	l.rebuild()
}

func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = format
	l.rebuild()
}

// Sugar exposes the underlying zap logger for libraries that want one.
func (l *Logger) Sugar() *zap.SugaredLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sugar
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

// rebuild must be called with l.mu held (or before l is shared).
func (l *Logger) rebuild() {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if l.format == FormatJSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(l.writer), l.level)
	l.sugar = zap.New(core).Sugar()
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.mu.Lock()
	sugar := l.sugar
	l.mu.Unlock()

	switch level {
	case LevelDebug:
		sugar.Debugw(msg, args...)
	case LevelInfo:
		sugar.Infow(msg, args...)
	case LevelWarn:
		sugar.Warnw(msg, args...)
	default:
		sugar.Errorw(msg, args...)
	}
}

func (lv Level) zap() zapcore.Level {
	switch lv {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
