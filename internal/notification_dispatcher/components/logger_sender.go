package components

import (
	"context"
	"log/slog"

	"github.com/wallet-ledger-engine/internal/domain/notification"
)

// LoggerSender writes each message to the log. It stands in for a mail or
// push channel until one is configured.
type LoggerSender struct {
	logger *slog.Logger
}

var _ notification.Sender = (*LoggerSender)(nil)

func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

func (s *LoggerSender) Send(ctx context.Context, message notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attrs := []any{
		"event_id", message.EventID.String(),
		"kind", message.Kind,
		"destination", message.Destination.String(),
		"body", message.Body,
	}
	if message.AdminNote != "" {
		attrs = append(attrs, "admin_note", message.AdminNote)
	}
	s.logger.Info("Sending notification", attrs...)
	return nil
}
