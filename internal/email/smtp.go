package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendBatchAssignedEmail(ctx context.Context, toEmail, advisorName string, assigned, deficit int) error {
	content, err := renderEmailTemplate("batch_assigned.html", batchAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Nuevos leads asignados",
			Heading: "Nuevos leads asignados",
		},
		AdvisorName: advisorName,
		Assigned:    assigned,
		Deficit:     deficit,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectBatchAssigned, content)
}

func (s *SMTPSender) SendRunSummaryEmail(ctx context.Context, toEmail string, destinations, totalRequested, totalAssigned, totalDeficit int) error {
	content, err := renderEmailTemplate("run_summary.html", runSummaryEmailData{
		baseEmailData: baseEmailData{
			Title:   "Resumen de distribución",
			Heading: "Resumen de distribución",
		},
		Destinations:   destinations,
		TotalRequested: totalRequested,
		TotalAssigned:  totalAssigned,
		TotalDeficit:   totalDeficit,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectRunSummary, content)
}

// Compile-time check.
var _ Sender = (*SMTPSender)(nil)
