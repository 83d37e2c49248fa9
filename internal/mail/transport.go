package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/datendrehschei/fsen-admin/internal/config"
)

// Transport submits messages.
type Transport interface {
	Send(from string, to []string, msg []byte) error
	Close() error
}

// Archiver stores copies of sent messages.
type Archiver interface {
	Append(folder string, date time.Time, msg []byte) error
	Close() error
}

// Dialer opens the authenticated mail connections of a real run.
type Dialer interface {
	DialSMTP(ctx context.Context, cfg config.Mail, password string) (Transport, error)
	DialIMAP(ctx context.Context, cfg config.Mail, password string) (Archiver, error)
}

// NetDialer connects to real servers: SMTP with STARTTLS and SASL PLAIN,
// IMAP over TLS with LOGIN.
type NetDialer struct {
	// TLSConfig is used for both connections; nil verifies against the host name.
	TLSConfig *tls.Config
}

// DialSMTP connects and authenticates to cfg.SMTPAddr().
func (d NetDialer) DialSMTP(ctx context.Context, cfg config.Mail, password string) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := smtp.DialStartTLS(cfg.SMTPAddr(), d.tlsConfig(cfg.Host))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s: %w", cfg.SMTPAddr(), err)
	}
	if err := c.Auth(sasl.NewPlainClient("", cfg.User, password)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return &smtpTransport{client: c}, nil
}

// DialIMAP connects and logs in to cfg.IMAPAddr().
func (d NetDialer) DialIMAP(ctx context.Context, cfg config.Mail, password string) (Archiver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := imapclient.DialTLS(cfg.IMAPAddr(), d.tlsConfig(cfg.Host))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", cfg.IMAPAddr(), err)
	}
	if err := c.Login(cfg.User, password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("IMAP login failed: %w", err)
	}
	return &imapArchiver{client: c}, nil
}

func (d NetDialer) tlsConfig(host string) *tls.Config {
	if d.TLSConfig != nil {
		return d.TLSConfig
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

type smtpTransport struct {
	client *smtp.Client
}

func (t *smtpTransport) Send(from string, to []string, msg []byte) error {
	if err := t.client.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("SMTP send failed: %w", err)
	}
	return nil
}

func (t *smtpTransport) Close() error {
	return t.client.Quit()
}

type imapArchiver struct {
	client *imapclient.Client
}

func (a *imapArchiver) Append(folder string, date time.Time, msg []byte) error {
	if err := a.client.Append(folder, []string{imap.SeenFlag}, date, bytes.NewBuffer(msg)); err != nil {
		return fmt.Errorf("IMAP append to %s failed: %w", folder, err)
	}
	return nil
}

func (a *imapArchiver) Close() error {
	return a.client.Logout()
}
