package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const recoverySubject = "Código para restablecer tu contraseña"

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers recovery codes through an SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendFunc
}

func NewSMTPMailer(addr, username, password, from string) (*SMTPMailer, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, errors.Wrap(err, "SMTP_ADDR must be host:port")
	}
	if from == "" {
		from = username
	}
	if !strings.Contains(from, "@") {
		return nil, errors.New("SMTP_FROM must be an email address")
	}
	m := &SMTPMailer{addr: addr, from: from, sendMail: smtp.SendMail}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m, nil
}

// SendRecoveryCode mails code to the account owner. ctx bounds the wait for
// the relay; the underlying dial is not interruptible.
func (m *SMTPMailer) SendRecoveryCode(ctx context.Context, to, code string, ttl time.Duration) error {
	if strings.ContainsAny(to, "\r\n") {
		return errors.New("invalid recipient")
	}
	msg := recoveryMessage(m.from, to, code, ttl)
	done := make(chan error, 1)
	go func() {
		done <- m.sendMail(m.addr, m.auth, m.from, []string{to}, msg)
	}()
	select {
	case err := <-done:
		return errors.Wrap(err, "send recovery mail")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recoveryMessage(from, to, code string, ttl time.Duration) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", recoverySubject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Tu código de recuperación es: %s\r\n\r\n", code)
	fmt.Fprintf(&b, "Vence en %d minutos. Si no lo solicitaste, ignora este mensaje.\r\n", int(ttl.Minutes()))
	return []byte(b.String())
}

// LogMailer stands in when SMTP is not configured. It never logs the code.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (l LogMailer) SendRecoveryCode(_ context.Context, to, _ string, _ time.Duration) error {
	l.Log.WithField("correo", to).Warn("recovery code issued but SMTP is not configured")
	return nil
}
