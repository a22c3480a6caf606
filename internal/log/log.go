// Copyright (c) 2022 Netskope, Inc. All rights reserved.

package log

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a logger using the Zap structured logger.
// If stdout is false, logs are appended to <logDir>/<logName>.log. Otherwise they go to stdout.
func NewLogger(logDir, logName string, debug, stdout bool) (*zap.Logger, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	cfg.LevelKey = "lv"
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(l.CapitalString()[:2])
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		cfg.CallerKey = "call"
	}

	ws, err := writeSyncer(logDir, logName, stdout)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), ws, level)

	if debug {
		return zap.New(core, zap.AddCaller()), nil
	}
	return zap.New(core), nil
}

// LogFilePath returns the file NewLogger writes to when stdout is false.
func LogFilePath(logDir, logName string) string {
	if logDir == "" {
		logDir = "/tmp"
	}
	if logName == "" {
		logName = filepath.Base(os.Args[0])
	}
	return filepath.Join(logDir, logName+".log")
}

func writeSyncer(logDir, logName string, stdout bool) (zapcore.WriteSyncer, error) {
	if stdout {
		return zapcore.AddSync(os.Stdout), nil
	}

	file, err := os.OpenFile(LogFilePath(logDir, logName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(file), nil
}
