package email

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mail. Delivery failures are the caller's
// problem to log; nothing here retries.
type Mailer interface {
	// SendWelcome delivers the first-activation mail carrying the generated
	// temporary credential.
	SendWelcome(to, userEmail, tempPassword string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromEmail   string
	FromName    string
	FrontendURL string
}

type SMTPMailer struct {
	cfg      SMTPConfig
	welcome  *template.Template
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	tmpl, err := template.New("welcome").Parse(welcomeTemplate)
	if err != nil {
		return nil, fmt.Errorf("email: parse welcome template: %w", err)
	}

	return &SMTPMailer{cfg: cfg, welcome: tmpl}, nil
}

func (m *SMTPMailer) SendWelcome(to, userEmail, tempPassword string) error {
	var body bytes.Buffer
	err := m.welcome.Execute(&body, map[string]string{
		"Email":    userEmail,
		"Password": tempPassword,
		"LoginURL": m.cfg.FrontendURL + "/login",
	})
	if err != nil {
		return fmt.Errorf("email: render welcome template: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Bem-vindo ao Habbit - Sua conta PRO foi ativada!")
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return dialer.DialAndSend(msg)
}
