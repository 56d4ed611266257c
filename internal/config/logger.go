package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger builds the application logger. With screen set the terminal display
// owns stdout and stderr, so logging goes to LogFile or is disabled.
func (c *Config) Logger(screen bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if screen && c.LogFile == "" {
		return zap.NewNop(), nil
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableStacktrace = true
	if c.LogFile != "" {
		zc.OutputPaths = []string{c.LogFile}
		zc.ErrorOutputPaths = []string{c.LogFile}
	}
	return zc.Build()
}
