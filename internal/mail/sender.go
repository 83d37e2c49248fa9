package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datendrehschei/fsen-admin/internal/config"
	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/logging"
)

// ErrNoRecipients is returned when a real send has an empty recipient list.
var ErrNoRecipients = errors.New("message has no recipients")

// PasswordPrompter asks for the mail account password.
type PasswordPrompter interface {
	Password(label string) (string, error)
}

// Options configures NewSender.
type Options struct {
	Config config.Mail

	// DryRunDir selects dry-run mode: messages are written there as <fs_id>.eml.
	DryRunDir string

	// Gate defaults to a file-backed gate at DefaultStampPath.
	Gate *Gate

	// Password is required in real mode.
	Password PasswordPrompter

	// Dialer defaults to NetDialer.
	Dialer Dialer

	Now    func() time.Time
	Logger *slog.Logger
}

// Sender delivers mail-merge messages. Its mode is fixed at construction.
type Sender struct {
	cfg       config.Mail
	dryRunDir string
	transport Transport
	archiver  Archiver
	now       func() time.Time
	logger    *slog.Logger
}

// NewSender prepares a run. In dry-run mode it arms the gate and opens no
// connection. In real mode it checks the gate before prompting for the
// password, then connects to SMTP and IMAP.
func NewSender(ctx context.Context, opts Options) (*Sender, error) {
	if opts.Gate == nil {
		opts.Gate = NewGate(NewFileStampStore(DefaultStampPath()), opts.Now)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Sender{
		cfg:       opts.Config,
		dryRunDir: opts.DryRunDir,
		now:       opts.Now,
		logger:    logging.WithOperation(opts.Logger, "mail"),
	}

	if s.DryRun() {
		if err := opts.Gate.Arm(); err != nil {
			return nil, err
		}
		s.logger.Info("dry run: writing messages to directory", slog.String("dir", s.dryRunDir))
		return s, nil
	}

	if err := opts.Gate.Check(); err != nil {
		return nil, err
	}
	if opts.Password == nil {
		return nil, errors.New("a password prompter is required for real sends")
	}
	password, err := opts.Password.Password(fmt.Sprintf("Password for %s: ", opts.Config.User))
	if err != nil {
		return nil, fmt.Errorf("failed to read mail password: %w", err)
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = NetDialer{}
	}
	s.transport, err = dialer.DialSMTP(ctx, opts.Config, password)
	if err != nil {
		return nil, err
	}
	s.archiver, err = dialer.DialIMAP(ctx, opts.Config, password)
	if err != nil {
		_ = s.transport.Close()
		return nil, err
	}
	s.logger.Info("connected to mail server", slog.String("host", opts.Config.Host))
	return s, nil
}

// DryRun reports whether messages are written to disk instead of sent.
func (s *Sender) DryRun() bool {
	return s.dryRunDir != ""
}

// Mode returns the instrumentation mode label.
func (s *Sender) Mode() string {
	if s.DryRun() {
		return instrumentation.ModeDryRun
	}
	return instrumentation.ModeLive
}

// Compose builds a message from the configured sender, stamped with the
// current time and a fresh Message-ID.
func (s *Sender) Compose(to, subject, body string) *Message {
	return Compose(s.cfg, to, subject, body, s.now())
}

// Send delivers msg for group fsID: written to <dir>/<fsID>.eml in dry-run
// mode, otherwise submitted via SMTP and appended to the sent folder marked as
// seen.
func (s *Sender) Send(ctx context.Context, fsID string, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	if s.DryRun() {
		return s.writeFile(fsID, data)
	}

	rcpts := msg.Recipients()
	if len(rcpts) == 0 {
		return fmt.Errorf("group %s: %w", fsID, ErrNoRecipients)
	}
	if err := s.transport.Send(s.cfg.User, rcpts, data); err != nil {
		return err
	}
	if err := s.archiver.Append(s.cfg.SentFolder, s.now(), data); err != nil {
		return err
	}
	return nil
}

// FilePath returns where a dry run writes the message of fsID.
func (s *Sender) FilePath(fsID string) (string, error) {
	if fsID == "" || fsID == "." || fsID == ".." || strings.ContainsAny(fsID, `/\`) {
		return "", fmt.Errorf("invalid fs_id %q for a file name", fsID)
	}
	return filepath.Join(s.dryRunDir, fsID+".eml"), nil
}

func (s *Sender) writeFile(fsID string, data []byte) error {
	path, err := s.FilePath(fsID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dryRunDir, 0o755); err != nil {
		return fmt.Errorf("failed to create dry-run directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Close quits SMTP and logs out of IMAP. It is a no-op in dry-run mode.
func (s *Sender) Close() error {
	if s.DryRun() {
		return nil
	}
	var errs []error
	if s.transport != nil {
		errs = append(errs, s.transport.Close())
	}
	if s.archiver != nil {
		errs = append(errs, s.archiver.Close())
	}
	return errors.Join(errs...)
}
