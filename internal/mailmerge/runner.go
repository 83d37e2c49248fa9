package mailmerge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/journal"
	"github.com/datendrehschei/fsen-admin/internal/logging"
	"github.com/datendrehschei/fsen-admin/internal/mail"
	"github.com/datendrehschei/fsen-admin/internal/report"
	"github.com/datendrehschei/fsen-admin/internal/template"
)

// Sender is the part of mail.Sender the runner drives.
type Sender interface {
	Compose(to, subject, body string) *mail.Message
	Send(ctx context.Context, fsID string, msg *mail.Message) error
	DryRun() bool
	Mode() string
}

// Recorder persists delivered messages.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Runner sends one message per row.
type Runner struct {
	sender  Sender
	tmpl    *template.Template
	delay   time.Duration
	out     io.Writer
	journal Recorder
	audit   *instrumentation.AuditLogger
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSendDelay waits delay between the end of one real send and the start of
// the next. Ignored in dry-run mode.
func WithSendDelay(delay time.Duration) Option {
	return func(r *Runner) {
		if delay > 0 {
			r.delay = delay
		}
	}
}

// WithJournal records every sent message.
func WithJournal(rec Recorder) Option {
	return func(r *Runner) { r.journal = rec }
}

// WithAudit logs every delivery to the audit log.
func WithAudit(a *instrumentation.AuditLogger) Option {
	return func(r *Runner) { r.audit = a }
}

// WithMetrics counts deliveries.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner writing progress lines to out.
func NewRunner(sender Sender, tmpl *template.Template, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		sender: sender,
		tmpl:   tmpl,
		out:    out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if sender.DryRun() {
		r.delay = 0
	}
	return r
}

// Run renders and sends every row in order, then prints "done.". It stops at
// the first failure; rows before it stay sent.
func (r *Runner) Run(ctx context.Context, rows []Row) error {
	mode := r.sender.Mode()
	logger := r.logger.With(logging.Mode(mode))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped before row %d: %w", i+1, err)
		}
		if i > 0 && r.delay > 0 {
			if err := r.pause(ctx); err != nil {
				return fmt.Errorf("stopped before row %d: %w", i+1, err)
			}
		}
		if err := r.sendRow(ctx, row, mode); err != nil {
			return fmt.Errorf("row %d (fs_id %s): %w", i+1, row[report.ColumnGroupID], err)
		}
	}

	fmt.Fprintln(r.out, "done.")
	logger.Info("mail merge finished", slog.Int("rows", len(rows)))
	return nil
}

// pause blocks for the send delay counted from now, the end of the previous
// send, so slow SMTP or IMAP round trips do not shorten it.
func (r *Runner) pause(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(r.delay), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

func (r *Runner) sendRow(ctx context.Context, row Row, mode string) (err error) {
	fsID, ok := row[report.ColumnGroupID]
	if !ok {
		return fmt.Errorf("column %q missing", report.ColumnGroupID)
	}
	recipients, ok := row[report.ColumnAddresses]
	if !ok {
		return fmt.Errorf("column %q missing", report.ColumnAddresses)
	}

	ctx, span := instrumentation.StartSpan(ctx, "mailmerge.send_row")
	defer span.End()

	delivery := instrumentation.NewDelivery(ctx, fsID, mode)
	delivery.Recipients = recipients
	defer func() {
		delivery.Complete(err)
		r.audit.LogDelivery(delivery)
		r.metrics.RecordMail(ctx, mode, delivery.Status())
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()

	subject, body, err := r.tmpl.Render(row)
	if err != nil {
		return err
	}
	delivery.Subject = subject

	msg := r.sender.Compose(recipients, subject, body)
	delivery.MessageID = msg.MessageID
	if err := r.sender.Send(ctx, fsID, msg); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Sent \"%s\" to \"%s\"\n", subject, recipients)

	if r.journal != nil {
		if _, err := r.journal.Record(ctx, journal.Entry{
			GroupID:    fsID,
			Recipients: recipients,
			Subject:    subject,
			MessageID:  msg.MessageID,
			Mode:       mode,
			SentAt:     msg.Date,
		}); err != nil {
			return err
		}
	}
	return nil
}
