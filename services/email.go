package services

import (
	"fmt"
	"itr_flow_app_go/config"
	"log"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To      []string
	Subject string
	Text    string
}

// EmailService sends transactional email through Resend. In test mode messages
// are logged to the console instead of sent.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// Send sends an email using the Resend API
func (s *EmailService) Send(email *Email) error {
	if s.cfg.EmailTestMode {
		log.Printf("[EMAIL] (test mode, not sent) To: %v Subject: %s Body: %s", email.To, email.Subject, email.Text)
		return nil
	}

	if s.cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if email.Text == "" {
		return fmt.Errorf("email must have a body")
	}

	client := resend.NewClient(s.cfg.ResendAPIKey)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.EmailFromName, s.cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Text:    email.Text,
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}
