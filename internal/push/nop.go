package push

import (
	"context"

	"go.uber.org/zap"
)

// NopSender logs notifications instead of delivering them. Used when no push
// credentials are configured.
type NopSender struct {
	logger *zap.Logger
}

func NewNopSender(logger *zap.Logger) *NopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopSender{logger: logger}
}

func (s *NopSender) Push(_ context.Context, userID int64, text string) error {
	s.logger.Info("push skipped, no provider configured", zap.Int64("userID", userID), zap.String("text", text))
	return nil
}
