// Package notify delivers best-effort email notifications for new feedback.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/feedback-widget/internal/config"
	"github.com/feedback-widget/internal/domain"
)

// Sender delivers one notification. Implementations are fire-and-forget
// sinks: the ingestion pipeline never waits on or propagates their outcome.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// SMTPSender sends plain-text email through a configured SMTP relay.
type SMTPSender struct {
	cfg config.NotifyConfig
}

// NewSMTPSender creates a Sender backed by net/smtp.
func NewSMTPSender(cfg config.NotifyConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers a summary of the new feedback record.
func (s *SMTPSender) Send(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&body, "To: %s\r\n", s.cfg.To)
	fmt.Fprintf(&body, "Subject: New feedback #%d\r\n", n.FeedbackID)
	body.WriteString("\r\n")
	fmt.Fprintf(&body, "Feedback #%d\n", n.FeedbackID)
	if n.Project != "" {
		fmt.Fprintf(&body, "Project: %s\n", n.Project)
	}
	if n.OriginURL != "" {
		fmt.Fprintf(&body, "Page: %s\n", n.OriginURL)
	}
	if n.Category != "" {
		fmt.Fprintf(&body, "Category: %s (priority %s)\n", n.Category, n.Priority)
	}
	fmt.Fprintf(&body, "\n%s\n", n.Message)

	addr := s.cfg.Host + ":" + s.cfg.Port
	return smtp.SendMail(addr, nil, s.cfg.From, []string{s.cfg.To}, []byte(body.String()))
}

// NopSender is used when no SMTP relay is configured.
type NopSender struct{}

// Send discards the notification.
func (NopSender) Send(ctx context.Context, n domain.Notification) error {
	return nil
}
