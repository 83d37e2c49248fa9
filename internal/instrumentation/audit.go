package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/datendrehschei/fsen-admin/internal/logging"
)

// Delivery captures one mail merge message for audit logging.
//
// # Privacy Considerations
//
// Recipients contains PII. LogAttrs only emits hashed addresses; LogAuditAttrs
// emits the raw list and should only be used for audit-specific log streams.
type Delivery struct {
	Group      string
	Recipients string
	Subject    string
	MessageID  string
	Mode       string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
}

// NewDelivery creates a Delivery with timing started.
// Call Complete when the message has been handed off.
func NewDelivery(ctx context.Context, group, mode string) *Delivery {
	return &Delivery{
		Group:     group,
		Mode:      mode,
		StartTime: time.Now(),
		TraceID:   GetTraceID(ctx),
	}
}

// Status returns "success" or "error" based on the Success field.
func (d *Delivery) Status() string {
	if d.Success {
		return StatusSuccess
	}
	return StatusError
}

// Complete marks the delivery as finished and calculates its duration.
func (d *Delivery) Complete(err error) *Delivery {
	d.Duration = time.Since(d.StartTime)
	d.Success = err == nil
	if err != nil {
		d.Error = err.Error()
	}
	return d
}

// LogAttrs returns slog attributes with recipients anonymized.
func (d *Delivery) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.Group(d.Group),
		logging.Mode(d.Mode),
		logging.Recipients(d.Recipients),
		slog.Duration("duration", d.Duration),
		slog.Bool("success", d.Success),
	}
	return d.appendOptional(attrs)
}

// LogAuditAttrs returns slog attributes including the raw recipient list.
func (d *Delivery) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		logging.Group(d.Group),
		logging.Mode(d.Mode),
		slog.String("recipients", d.Recipients),
		slog.String("subject", d.Subject),
		slog.Duration("duration", d.Duration),
		slog.Bool("success", d.Success),
	}
	return d.appendOptional(attrs)
}

func (d *Delivery) appendOptional(attrs []slog.Attr) []slog.Attr {
	if d.MessageID != "" {
		attrs = append(attrs, slog.String("message_id", d.MessageID))
	}
	if d.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", d.TraceID))
	}
	if d.Error != "" {
		attrs = append(attrs, slog.String("error", d.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for mail merge deliveries.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogDelivery logs a delivery, with or without PII depending on configuration.
func (al *AuditLogger) LogDelivery(d *Delivery) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = d.LogAuditAttrs()
	} else {
		attrs = d.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if d.Success {
		al.logger.Info("mail_delivered", args...)
	} else {
		al.logger.Warn("mail_failed", args...)
	}
}
