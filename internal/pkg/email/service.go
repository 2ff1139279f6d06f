// internal/pkg/email/service.go
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service sends transactional mail over SMTP. With EMAIL_ENABLED=false
// every send becomes a log line, which keeps local development quiet.
type Service struct {
	config *config.Config
	logger *logrus.Logger
}

// NewService creates a new email service
func NewService(cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

// OrderConfirmed sends the order confirmation email
func (s *Service) OrderConfirmed(o *order.Order) error {
	subject := fmt.Sprintf("Order %s confirmed", o.OrderID)
	body := s.confirmationBody(o)
	return s.send(o.Email, subject, body)
}

func (s *Service) confirmationBody(o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", o.FirstName)
	fmt.Fprintf(&b, "Your order %s has been placed.\r\n\r\n", o.OrderID)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  %d x product #%d at %s\r\n", item.Quantity, item.ProductID, item.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\r\nTotal: %s\r\n", o.TotalAmount().StringFixed(2))
	fmt.Fprintf(&b, "\r\nShipping to: %s, %s %s\r\n", o.Address, o.City, o.PostalCode)
	return b.String()
}

// send delivers one plain-text message
func (s *Service) send(to, subject, body string) error {
	if !s.config.Email.Enabled {
		s.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email sending disabled, skipping")
		return nil
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.config.Email.FromName,
		s.config.Email.FromEmail,
		to,
		subject,
		body,
	)

	addr := fmt.Sprintf("%s:%d", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	var auth smtp.Auth
	if s.config.Email.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.config.Email.SMTPUser, s.config.Email.SMTPPass, s.config.Email.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// ensure the service satisfies the order notification contract
var _ order.Notifier = (*Service)(nil)
