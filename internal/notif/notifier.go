package notif

import (
	"fmt"
	"log"
	"net/smtp"

	"postflow/internal/common"
	"postflow/internal/config"
)

// EmailNotifier is the messaging collaborator boundary: one SMTP send per
// failed record.
type EmailNotifier struct {
	cfg config.EmailConfig
}

func NewEmailNotifier(cfg *config.Config) *EmailNotifier {
	return &EmailNotifier{cfg: cfg.Email}
}

func (n *EmailNotifier) Send(notice common.FailureNotice) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)

	subject := fmt.Sprintf("Your %s post could not be published", notice.PlatformID)
	body := fmt.Sprintf(
		"Publishing to %s failed: %s\r\n\r\nPost: %q\r\n\r\nReview it here: %s\r\n",
		notice.PlatformID, notice.Reason, notice.Excerpt, notice.DeepLink,
	)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.cfg.FromName, n.cfg.FromEmail, notice.Email, subject, body,
	))

	if err := smtp.SendMail(addr, auth, n.cfg.FromEmail, []string{notice.Email}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

// LogNotifier stands in when email is disabled; it only records that a
// notice would have been sent.
type LogNotifier struct{}

func (LogNotifier) Send(notice common.FailureNotice) error {
	log.Printf("Notice (email disabled) - To: %s, Record excerpt: %q, Reason: %s",
		notice.Email, notice.Excerpt, notice.Reason)
	return nil
}
