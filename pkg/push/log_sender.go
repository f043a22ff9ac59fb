package push

import (
	"context"

	"go.uber.org/zap"
)

// LogSender stands in for the transport when push is disabled: every message
// is logged at debug level and counted as delivered.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOne(_ context.Context, msg Message) error {
	s.logger.Debug("push (disabled)", zap.String("title", msg.Title), zap.Int("token_len", len(msg.Token)))
	return nil
}

func (s *LogSender) SendMany(_ context.Context, msgs []Message) (*BatchResult, error) {
	res := &BatchResult{SuccessCount: len(msgs), Items: make([]ItemResult, len(msgs))}
	for i, m := range msgs {
		res.Items[i] = ItemResult{Token: m.Token, Success: true}
	}
	s.logger.Debug("push batch (disabled)", zap.Int("count", len(msgs)))
	return res, nil
}
