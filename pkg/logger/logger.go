// Package logger provides the process-wide structured logger used by
// the registry core and its periodic tasks. It wraps a zap.SugaredLogger
// behind a package-level singleton so call sites never thread a logger
// through constructors.
package logger

import (
	"os"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(build(unstructuredLogs()))
}

// unstructuredLogs reports whether console (unstructured) encoding is
// selected: it returns false only when UNSTRUCTURED_LOGS parses as a
// false boolean. Any unparseable value defaults to true (console
// encoding), matching the default used when the variable is unset.
func unstructuredLogs() bool {
	v, ok := os.LookupEnv("UNSTRUCTURED_LOGS")
	if !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func build(unstructured bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if unstructured {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a minimal logger rather than leave the singleton nil.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Initialize rebuilds the singleton logger from the current environment.
// Safe to call multiple times; the last call wins.
func Initialize() {
	singleton.Store(build(unstructuredLogs()))
}

// Get returns the current singleton logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

// Sync flushes any buffered log entries. Call during shutdown.
func Sync() error {
	return Get().Sync()
}

func Debug(args ...interface{})                   { Get().Debug(args...) }
func Debugf(template string, args ...interface{})  { Get().Debugf(template, args...) }
func Debugw(msg string, kv ...interface{})         { Get().Debugw(msg, kv...) }
func Info(args ...interface{})                     { Get().Info(args...) }
func Infof(template string, args ...interface{})   { Get().Infof(template, args...) }
func Infow(msg string, kv ...interface{})          { Get().Infow(msg, kv...) }
func Warn(args ...interface{})                     { Get().Warn(args...) }
func Warnf(template string, args ...interface{})   { Get().Warnf(template, args...) }
func Warnw(msg string, kv ...interface{})          { Get().Warnw(msg, kv...) }
func Error(args ...interface{})                    { Get().Error(args...) }
func Errorf(template string, args ...interface{})  { Get().Errorf(template, args...) }
func Errorw(msg string, kv ...interface{})         { Get().Errorw(msg, kv...) }
func DPanic(args ...interface{})                   { Get().DPanic(args...) }
func DPanicf(template string, args ...interface{}) { Get().DPanicf(template, args...) }
func DPanicw(msg string, kv ...interface{})        { Get().DPanicw(msg, kv...) }
func Panic(args ...interface{})                    { Get().Panic(args...) }
func Panicf(template string, args ...interface{})  { Get().Panicf(template, args...) }
func Panicw(msg string, kv ...interface{})         { Get().Panicw(msg, kv...) }
func Fatalf(template string, args ...interface{})  { Get().Fatalf(template, args...) }
