package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the logger instead of delivering them. Used
// when no SendGrid key is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the envelope and text body.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not delivered (log sender)",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
		zap.String("body", msg.Text),
	)
	return nil
}
