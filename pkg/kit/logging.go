package kit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envProduction = "production"

// NewLogger builds the process logger. Production uses the JSON encoder,
// anything else gets the human readable console encoder with colored levels.
func NewLogger(service, env string) *zap.Logger {
	var cfg zap.Config
	if env == envProduction {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.InitialFields = map[string]any{"service": service}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// WithLevel returns a copy of log that drops entries below lvl.
func WithLevel(log *zap.Logger, lvl zapcore.Level) *zap.Logger {
	return log.WithOptions(zap.IncreaseLevel(lvl))
}
