package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger: JSON in production, colored console output elsewhere.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	return cfg.Build()
}

// ForChat returns a child logger tagged with the chat a session belongs to.
func ForChat(l *zap.Logger, chatID int64) *zap.Logger {
	return l.With(zap.Int64("chat_id", chatID))
}
