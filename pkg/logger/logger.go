package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a named zap logger. Debug level gets the human readable
// development encoder, everything else is JSON.
func NewLogger(cfg Log, name string) *zap.Logger {
	var zc zap.Config
	if cfg.LogLevel == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	if cfg.Sink != "" {
		zc.OutputPaths = []string{cfg.Sink}
	}

	log, err := zc.Build()
	if err != nil {
		log = zap.NewExample()
		log.Error("logger build", zap.Error(err))
	}
	return log.Named(name)
}
