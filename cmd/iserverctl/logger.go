package main

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logTimeFmt = "2006-01-02 15:04:05.000"

// LogConfig controls the rotating log file of the CLI.
type LogConfig struct {
	LogFile    string
	LogLevel   string
	MaxSize    int
	MaxDays    int
	MaxBackups int
}

// newLogger returns a no-op logger unless a log file is configured.
func newLogger(cfg *LogConfig) *zap.Logger {
	if cfg == nil || strings.TrimSpace(cfg.LogFile) == "" {
		return zap.NewNop()
	}
	core := zapcore.NewCore(getEncoder(), getWriteSyncer(cfg), getLevelEnabler(cfg.LogLevel))
	return zap.New(core, zap.AddCaller())
}

func getEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller_line",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    cEncodeLevel,
			EncodeTime:     cEncodeTime,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   cEncodeCaller,
		})
}

func getWriteSyncer(cfg *LogConfig) zapcore.WriteSyncer {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 64
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
	})
}

func getLevelEnabler(logLevel string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(logLevel)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func cEncodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func cEncodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(logTimeFmt) + "]")
}

func cEncodeCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + caller.TrimmedPath() + "]")
}
