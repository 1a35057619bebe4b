// Package mail delivers account emails.
package mail

import (
	"context"
	"log/slog"
)

// Sender delivers email verification tokens to users.
type Sender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// LogSender "sends" mail by writing it to the structured log.
// It is the only sender shipped; a real SMTP sender would satisfy the same interface.
type LogSender struct {
	Logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{Logger: logger}
}

func (s *LogSender) SendVerification(ctx context.Context, email, token string) error {
	s.Logger.InfoContext(ctx, "verification email queued", "email", email, "token", token)
	return nil
}
