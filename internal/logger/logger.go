package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process wide logger. It discards everything until the CLI replaces it.
var Log *zap.Logger = zap.NewNop()

func NewLogger(logLevel string, format string, outputStdout []string, outputStderr []string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atomicLevel, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, err
	}

	encoding := "json"
	if format == "console" {
		encoding = "console"
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:             atomicLevel,
		Development:       false,
		DisableCaller:     true,
		DisableStacktrace: true,
		Sampling:          nil,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputStdout,
		ErrorOutputPaths:  outputStderr,
		InitialFields:     map[string]interface{}{},
	}

	return config.Build()
}

// Named returns a child of l, or of Log when l is nil.
func Named(l *zap.Logger, name string) *zap.Logger {
	if l == nil {
		l = Log
	}
	return l.Named(name)
}
