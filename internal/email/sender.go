// Package email delivers notification mail for distribution and recycling
// outcomes.
package email

import (
	"context"

	"salesops_backend/platform/config"
)

type Sender interface {
	// SendBatchAssignedEmail tells an advisor their daily batch is ready.
	SendBatchAssignedEmail(ctx context.Context, toEmail, advisorName string, assigned, deficit int) error
	// SendRunSummaryEmail sends the operator the run totals.
	SendRunSummaryEmail(ctx context.Context, toEmail string, destinations, totalRequested, totalAssigned, totalDeficit int) error
}

type NoopSender struct{}

func (NoopSender) SendBatchAssignedEmail(context.Context, string, string, int, int) error {
	return nil
}

func (NoopSender) SendRunSummaryEmail(context.Context, string, int, int, int, int) error {
	return nil
}

// NewSender returns the SMTP sender when email is enabled, otherwise a noop.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
