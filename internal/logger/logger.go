package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	ServiceName   string
	IsDebug       bool
	InitialFields []zap.Field

	// Cores receive every entry next to the stderr core.
	Cores []zapcore.Core
}

// NewLogger builds a JSON logger writing to stderr, stdout carries command output.
func NewLogger(loggerConfig LoggerConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if loggerConfig.IsDebug {
		level.SetLevel(zap.DebugLevel)
	}

	config := zap.Config{
		Level:    level,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:       "timestamp",
			MessageKey:    "message",
			LevelKey:      "level",
			EncodeLevel:   zapcore.LowercaseLevelEncoder,
			StacktraceKey: "stacktrace",
			EncodeTime:    zapcore.RFC3339TimeEncoder,
			LineEnding:    zapcore.DefaultLineEnding,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build(
		zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			if len(loggerConfig.Cores) == 0 {
				return c
			}

			return zapcore.NewTee(append([]zapcore.Core{c}, loggerConfig.Cores...)...)
		}),
		zap.Fields(
			zap.String("service", loggerConfig.ServiceName),
			zap.Int("pid", os.Getpid()),
		),
		zap.Fields(loggerConfig.InitialFields...),
	)
	if err != nil {
		return nil, fmt.Errorf("error building logger: %w", err)
	}

	return logger, nil
}
