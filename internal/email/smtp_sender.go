package email

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig describe el servidor de salida.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS abre la conexion ya cifrada (puerto 465). Sin el, se usa
	// STARTTLS cuando el servidor lo anuncia.
	ImplicitTLS bool
}

// SMTPSender envia el resultado por SMTP.
type SMTPSender struct {
	cfg  SMTPConfig
	now  func() time.Time
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	s := &SMTPSender{cfg: cfg, now: time.Now}
	if cfg.ImplicitTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: cfg.Host}}
		s.dial = d.DialContext
	} else {
		d := &net.Dialer{Timeout: 10 * time.Second}
		s.dial = d.DialContext
	}
	return s, nil
}

// SendResult renderiza el mensaje en su idioma y lo entrega.
func (s *SMTPSender) SendResult(ctx context.Context, result ResultMessage) error {
	to := strings.TrimSpace(result.To)
	if to == "" {
		return fmt.Errorf("to email is required")
	}

	subject, body := Render(result)
	msg := buildMessage(s.cfg.From, s.cfg.FromName, to, subject, body, s.now())

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := s.deliver(client, to, msg); err != nil {
		return err
	}
	return client.Quit()
}

func (s *SMTPSender) deliver(client *smtp.Client, to, msg string) error {
	if !s.cfg.ImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// buildMessage arma cabeceras RFC 5322 con asunto y remitente codificados y
// cuerpo en base64 (el texto puede ser japones).
func buildMessage(from, fromName, to, subject, body string, at time.Time) string {
	fromHeader := from
	if strings.TrimSpace(fromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), from)
	}

	headers := []string{
		"From: " + fromHeader,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + at.UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: base64",
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	var lines []string
	for len(encoded) > 76 {
		lines = append(lines, encoded[:76])
		encoded = encoded[76:]
	}
	lines = append(lines, encoded)

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + strings.Join(lines, "\r\n")
}
