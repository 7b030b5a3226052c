// Package log builds the logr.Logger every other package logs through,
// backed by zap. The teacher wraps its own controller-runtime-style zap
// options package; that wrapper isn't part of this module, so this
// package talks to zap and zapr directly instead, at the same two log
// levels and with the same file-or-stderr destination choice.
package log

import (
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogLevelInfo  = 0
	LogLevelDebug = 1
)

// CreateLogger builds a logr.Logger at loglevel, writing to filepath if
// non-empty or stderr otherwise, and naming every entry name if non-empty.
func CreateLogger(name string, loglevel int, filepath string) logr.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.StampMilli)

	level := zapcore.InfoLevel
	encoding := "json"
	if loglevel > 0 {
		level = zapcore.Level(-loglevel)
		encoding = "console"
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	sink := zapcore.AddSync(os.Stderr)
	if filepath != "" {
		logf, err := os.OpenFile(filepath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err == nil {
			sink = zapcore.AddSync(logf)
		}
	}

	core := zapcore.NewCore(encoderFor(encoding, encoderCfg), sink, level)
	zapLogger := zap.New(core, zap.AddCaller())

	logger := zapr.NewLogger(zapLogger)
	if name != "" {
		return logger.WithName(name)
	}
	return logger
}

func encoderFor(encoding string, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if encoding == "console" {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}
