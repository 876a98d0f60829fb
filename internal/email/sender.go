package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"net/url"
	"regexp"

	"github.com/redmonkez12/matcha/internal/logging"
)

type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
}

func NewSMTPSender(host, port, user, password string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}

	raw := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		msg.From, msg.To, msg.Subject, msg.HTML,
	))

	return smtp.SendMail(net.JoinHostPort(s.host, s.port), auth, envelopeAddress(msg.From), []string{msg.To}, raw)
}

var angleAddr = regexp.MustCompile(`<([^>]+)>`)

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if m := angleAddr.FindStringSubmatch(from); m != nil {
		return m[1]
	}
	return from
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP host is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	link := ""
	if m := hrefPattern.FindStringSubmatch(msg.HTML); m != nil {
		link = m[1]
	}
	logging.FromContext(ctx, s.logger).Info("email not sent, SMTP disabled",
		"to", msg.To,
		"subject", msg.Subject,
		"link", redactLink(link),
	)
	return nil
}

// redactLink masks every query value so single-use secrets never reach the log.
func redactLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[unparseable link]"
	}
	q := u.Query()
	for key := range q {
		q.Set(key, "REDACTED")
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}
