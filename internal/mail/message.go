package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datendrehschei/fsen-admin/internal/config"
)

// Message is one outgoing plain-text mail.
type Message struct {
	FromName    string
	FromAddress string
	// To is the comma-separated recipient list as it appears in the data file.
	To        string
	Subject   string
	Body      string
	Date      time.Time
	MessageID string
}

// Compose builds the message cfg's account sends to the comma-separated
// recipient list to. Real sends, dry runs and previews all go through it.
func Compose(cfg config.Mail, to, subject, body string, date time.Time) *Message {
	return &Message{
		FromName:    cfg.FromName,
		FromAddress: cfg.User,
		To:          to,
		Subject:     subject,
		Body:        body,
		Date:        date,
		MessageID:   NewMessageID(cfg.User),
	}
}

// NewMessageID returns a unique Message-ID for the sender's domain.
func NewMessageID(fromAddress string) string {
	domain := "localhost"
	if at := strings.LastIndex(fromAddress, "@"); at >= 0 && at < len(fromAddress)-1 {
		domain = fromAddress[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// Recipients splits To into individual addresses, dropping empty entries.
func (m *Message) Recipients() []string {
	var out []string
	for _, r := range strings.Split(m.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// From returns the From header value, "name <address>".
func (m *Message) From() string {
	if m.FromName == "" {
		return m.FromAddress
	}
	return (&netmail.Address{Name: m.FromName, Address: m.FromAddress}).String()
}

// Bytes renders the message in RFC 5322 format with CRLF line endings and a
// quoted-printable UTF-8 body.
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	header := func(name, value string) {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}

	header("From", m.From())
	header("To", strings.Join(m.Recipients(), ", "))
	header("Subject", encodeRFC2047(m.Subject))
	header("Date", m.Date.Format(time.RFC1123Z))
	if m.MessageID != "" {
		header("Message-ID", m.MessageID)
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\r\n")) {
		buf.WriteString("\r\n")
	}
	return buf.Bytes(), nil
}

// encodeRFC2047 encodes s for a header if it contains non-ASCII characters.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}
