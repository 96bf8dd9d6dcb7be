package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendConsentRequested(toEmail, ideaSummary string) error
	SendReportReady(toEmail, topic string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendConsentRequested(toEmail, ideaSummary string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your research brief is ready for review")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>We understood your idea</h2>
			<p>%s</p>
			<p>Open the app to confirm the brief and start deep research.</p>
			<p><a href="%s">Review and confirm</a></p>
		</div>
	`, ideaSummary, s.frontendURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send consent mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Consent request sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendReportReady(toEmail, topic string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Research finished: "+topic)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Research complete</h2>
			<p>The evidence gathering for <strong>%s</strong> has finished.</p>
			<p><a href="%s">Open your report</a></p>
		</div>
	`, topic, s.frontendURL)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report-ready mail sent to %s\n", toEmail)
	return nil
}
