// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

// Package logger provides the process-wide structured logger: a
// zap.SugaredLogger behind an atomic singleton, with package-level
// Debug/Info/Warn/Error/DPanic/Panic helpers (plus f and w variants) and a
// logr.Logger bridge for libraries that expect one.
package logger

import (
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(newDefault(false))
}

// EnvUnstructuredLogs, when set to "false", switches the default logger to
// JSON output; any other value (including unset) keeps human-readable
// console output.
const EnvUnstructuredLogs = "UNSTRUCTURED_LOGS"

func newDefault(json bool) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if json {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// Initialize (re)configures the singleton from the environment: JSON output
// when EnvUnstructuredLogs is "false", console output otherwise.
func Initialize() {
	singleton.Store(newDefault(os.Getenv(EnvUnstructuredLogs) == "false"))
}

// Get returns the current process-wide logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

// NewLogr adapts the current singleton to logr.Logger, for libraries (such
// as controller-runtime-style dependencies) that take one directly.
func NewLogr() logr.Logger {
	return zapr.NewLogger(singleton.Load().Desugar())
}

func Debug(args ...interface{})                   { singleton.Load().Debug(args...) }
func Debugf(template string, args ...interface{}) { singleton.Load().Debugf(template, args...) }
func Debugw(msg string, kv ...interface{})        { singleton.Load().Debugw(msg, kv...) }

func Info(args ...interface{})                   { singleton.Load().Info(args...) }
func Infof(template string, args ...interface{}) { singleton.Load().Infof(template, args...) }
func Infow(msg string, kv ...interface{})        { singleton.Load().Infow(msg, kv...) }

func Warn(args ...interface{})                   { singleton.Load().Warn(args...) }
func Warnf(template string, args ...interface{}) { singleton.Load().Warnf(template, args...) }
func Warnw(msg string, kv ...interface{})        { singleton.Load().Warnw(msg, kv...) }

func Error(args ...interface{})                   { singleton.Load().Error(args...) }
func Errorf(template string, args ...interface{}) { singleton.Load().Errorf(template, args...) }
func Errorw(msg string, kv ...interface{})        { singleton.Load().Errorw(msg, kv...) }

func DPanic(args ...interface{})                   { singleton.Load().DPanic(args...) }
func DPanicf(template string, args ...interface{}) { singleton.Load().DPanicf(template, args...) }
func DPanicw(msg string, kv ...interface{})        { singleton.Load().DPanicw(msg, kv...) }

func Panic(args ...interface{})                   { singleton.Load().Panic(args...) }
func Panicf(template string, args ...interface{}) { singleton.Load().Panicf(template, args...) }
func Panicw(msg string, kv ...interface{})        { singleton.Load().Panicw(msg, kv...) }
