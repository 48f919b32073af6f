// Package notify sends plugin-failure notifications over SMTP, grounded on
// original_source/src/email.rs's send_email: relay through a configured SMTP
// server when credentials are present, otherwise log the message instead of
// sending it. No SMTP client library appears anywhere in the example pack,
// so this is built on the standard library's net/smtp.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/memri/pod/pkg/log"
)

const (
	subjectPrefix = "[Pod] "
	footer        = "\n\n--\nSent by Pod.\n"
)

// Mailer sends notification emails through a relay, or logs them when no
// relay is configured.
type Mailer struct {
	relay    string
	user     string
	password string
	port     int
}

// NewMailer builds a Mailer. An empty relay means every Send call logs the
// message instead of delivering it, matching email.rs's unconfigured path.
func NewMailer(relay, user, password string, port int) *Mailer {
	return &Mailer{relay: relay, user: user, password: password, port: port}
}

// Send delivers one notification to "to" with the given subject and body.
func (m *Mailer) Send(to, subject, body string) error {
	if m.relay == "" || m.user == "" || m.password == "" {
		m.debugLog(to, subject, body)
		return nil
	}

	from := fmt.Sprintf("Pod <%s>", m.user)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s%s\r\n\r\n%s%s",
		from, to, subjectPrefix, subject, body, footer)

	auth := smtp.PlainAuth("", m.user, m.password, m.relay)
	addr := fmt.Sprintf("%s:%d", m.relay, m.port)
	if err := smtp.SendMail(addr, auth, m.user, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

func (m *Mailer) debugLog(to, subject, body string) {
	log.Logger.Info().
		Str("to", to).
		Str("subject", subjectPrefix+subject).
		Str("body", body).
		Msg("smtp relay not configured, logging notification instead of sending")
}
