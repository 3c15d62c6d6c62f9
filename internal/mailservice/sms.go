package mailservice

import (
	"context"
	"log/slog"
)

// LogSMSSender records text messages in the log instead of sending them. No SMS provider is
// wired in.
type LogSMSSender struct {
	logger *slog.Logger
}

func NewLogSMSSender(logger *slog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(ctx context.Context, to, message string) error {
	s.logger.InfoContext(ctx, "sms would be sent", slog.String("to", to), slog.String("message", message))
	return nil
}
