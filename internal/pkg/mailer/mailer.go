package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"mesarpg/internal/pkg/logger"
)

// Config agrupa as credenciais SMTP do adaptador de e-mail.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// SMTPMailer é o adaptador SMTP que implementa domain.EmailService.
// Equivalente Go do adaptador PHPMailer da versão original da plataforma.
type SMTPMailer struct {
	cfg    Config
	logger logger.Logger
}

// NewSMTPMailer cria uma nova instância do adaptador de e-mail.
func NewSMTPMailer(cfg Config, log logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: log}
}

// Enviar monta e envia um e-mail HTML para um único destinatário.
func (m *SMTPMailer) Enviar(destinatarioEmail, destinatarioNome, assunto, corpoHTML string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetAddressHeader("To", destinatarioEmail, destinatarioNome)
	msg.SetHeader("Subject", assunto)
	msg.SetBody("text/html", corpoHTML)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	if err := dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Falha ao enviar e-mail via SMTP.", err)
		return fmt.Errorf("falha ao enviar e-mail para %s: %w", destinatarioEmail, err)
	}

	m.logger.Info("E-mail enviado com sucesso.", map[string]interface{}{"destinatario": destinatarioEmail, "assunto": assunto})
	return nil
}
