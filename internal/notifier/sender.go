package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	gopkgmail "gopkg.in/gomail.v2"

	"github.com/mnesleha/Shopwise/config"
)

// EmailNotification — письмо после декодирования из топика.
type EmailNotification struct {
	To       string
	Subject  string
	Template string // verify_email, order_confirmation, guest_order_confirmation
	Data     map[string]any
}

// EmailSender рендерит пару шаблонов <name>.html / <name>.txt из TMPLDir
// и отправляет multipart-письмо через SMTP.
type EmailSender struct {
	cfg config.SMTP
}

func NewEmailSender(cfg config.SMTP) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (s *EmailSender) SendEmail(n EmailNotification) error {
	htmlBody, err := s.render(n.Template+".html", n.Data)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	plainBody, err := s.render(n.Template+".txt", n.Data)
	if err != nil {
		return fmt.Errorf("render plain: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	d := gopkgmail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	d.SSL = s.cfg.Port == 465
	return d.DialAndSend(m)
}

func (s *EmailSender) render(filename string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(s.cfg.TMPLDir, filename))
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(filename).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
