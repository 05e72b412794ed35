package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Nurbek02/adventure-race-system/config"
)

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

var welcomeEmailTmpl = template.Must(template.New("welcome").Parse(
	`<p>Привет, {{.FirstName}}!</p>
<p>Аккаунт создан. Вступайте в команду и регистрируйтесь на гонки.</p>`))

var registrationEmailTmpl = template.Must(template.New("registration").Parse(
	`<p>Ваша команда зарегистрирована на гонку <b>{{.RaceName}}</b>.</p>
<p>Удачи на дистанции!</p>`))

func (s *EmailService) SendWelcomeEmail(to string, firstName string) error {
	var body bytes.Buffer
	if err := welcomeEmailTmpl.Execute(&body, map[string]string{"FirstName": firstName}); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	return s.send([]string{to}, "Добро пожаловать", body.String())
}

func (s *EmailService) SendRegistrationEmail(to string, raceName string) error {
	var body bytes.Buffer
	if err := registrationEmailTmpl.Execute(&body, map[string]string{"RaceName": raceName}); err != nil {
		return fmt.Errorf("failed to render registration email: %w", err)
	}
	return s.send([]string{to}, "Регистрация на гонку", body.String())
}

func (s *EmailService) send(to []string, subject string, body string) error {
	if s.cfg.SMTPHost == "" {
		// Почта не сконфигурирована - доставка отключена.
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	if s.cfg.SMTPPort != 465 {
		return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, to, msg)
	}

	// Порт 465 - неявный TLS: соединение шифруется до SMTP-диалога.
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("failed to dial SMTP over TLS: %w", err)
	}
	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
