package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds a production ready structured logger.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "dermascan")), nil
}

// WithOperation enriches the logger with operation and prediction identifiers.
func WithOperation(logger *zap.Logger, operation, predictionID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if predictionID != "" {
		fields = append(fields, zap.String("prediction_id", predictionID))
	}
	return logger.With(fields...)
}
