package report

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/conanology/job-tracker/internal/domain"
)

// ErrDelivery marks an email transport failure. Logged, never fatal: the
// CSV and snapshot are already committed by the time the notifier runs.
var ErrDelivery = errors.New("delivery failure")

type Notifier struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewNotifier(host string, port int, username, password, from string, to []string) *Notifier {
	return &Notifier{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		To:       to,
		send:     smtp.SendMail,
	}
}

// Send emails one summary of the new listings. Sending nothing for an empty
// set is success, not an error.
func (n *Notifier) Send(fresh []domain.Listing) error {
	if len(fresh) == 0 {
		return nil
	}
	if n.Host == "" || n.From == "" || len(n.To) == 0 {
		return fmt.Errorf("%w: smtp transport not configured", ErrDelivery)
	}

	msg := n.buildMessage(fresh, time.Now())

	var auth smtp.Auth
	if n.Username != "" && n.Password != "" {
		auth = smtp.PlainAuth("", n.Username, n.Password, n.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	if err := n.send(addr, auth, n.From, n.To, msg); err != nil {
		return fmt.Errorf("%w: send via %s: %v", ErrDelivery, addr, err)
	}
	return nil
}

func (n *Notifier) buildMessage(fresh []domain.Listing, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subjectLine(len(fresh), now))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	for _, l := range fresh {
		line := l.Title
		if l.Company != "" {
			line += " - " + l.Company
		}
		if l.Location != "" {
			line += " (" + l.Location + ")"
		}
		b.WriteString(line + "\r\n")
		if l.URL != "" {
			b.WriteString(l.URL + "\r\n")
		}
		b.WriteString("\r\n")
	}

	return []byte(b.String())
}

func subjectLine(count int, now time.Time) string {
	noun := "listings"
	if count == 1 {
		noun = "listing"
	}
	return fmt.Sprintf("%d new job %s (%s)", count, noun, now.Format("2006-01-02"))
}
