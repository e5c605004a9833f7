package mailer

import (
	"context"

	"go.uber.org/zap"

	"andrew-web-services/pkg/security"
)

// LogMailer only logs. It is meant for local runs where no mail pipeline exists.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// MailTo logs the masked address and never fails.
func (m *LogMailer) MailTo(_ context.Context, email string) error {
	m.log.Info("promo email (log mailer)", zap.String("email", security.MaskEmail(email)))
	return nil
}
