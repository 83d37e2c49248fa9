package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/permissions"
)

// Group datasets a report can be built from.
const (
	SourceProtected = "protected"
	SourcePublic    = "public"
)

// ErrRequestFilterUnavailable is returned when request filters are combined
// with the public source.
var ErrRequestFilterUnavailable = errors.New("payout request filters are only available with the protected source")

// API is the part of the portal client an export needs.
type API interface {
	Groups(ctx context.Context) (map[string]fsapi.Group, error)
	PublicSnapshot(ctx context.Context) (map[string]fsapi.Group, error)
	Permissions(ctx context.Context, exclude ...string) (map[string][]permissions.Permission, error)
	PayoutRequests(ctx context.Context) ([]fsapi.PayoutRequest, error)
}

// ExportOptions extends Options with the data source selection.
type ExportOptions struct {
	Options

	// Source is SourceProtected (default) or SourcePublic.
	Source string

	// ExcludeUsers are left out of the permission lists.
	ExcludeUsers []string
}

// Validate checks the options before anything is fetched.
func (o ExportOptions) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	switch o.Source {
	case "", SourceProtected:
	case SourcePublic:
		if o.NeedsRequests() {
			return ErrRequestFilterUnavailable
		}
	default:
		return fmt.Errorf("unknown source %q (valid: %s, %s)", o.Source, SourceProtected, SourcePublic)
	}
	return nil
}

// Export fetches the data the options need and builds the rows. Permissions
// are only fetched when requested, payout requests only when a request filter
// is set.
func Export(ctx context.Context, api API, opts ExportOptions, logger *slog.Logger) ([]Row, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		in  Input
		err error
	)
	if opts.Source == SourcePublic {
		in.Groups, err = api.PublicSnapshot(ctx)
	} else {
		in.Groups, err = api.Groups(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}

	if opts.IncludePermissions {
		in.Permissions, err = api.Permissions(ctx, opts.ExcludeUsers...)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
	}

	if opts.NeedsRequests() {
		in.Requests, err = api.PayoutRequests(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch payout requests: %w", err)
		}
	}

	rows, err := Build(in, opts.Options)
	if err != nil {
		return nil, err
	}
	logger.Info("report built",
		slog.String("source", sourceName(opts.Source)),
		slog.Int("groups", len(in.Groups)),
		slog.Int("rows", len(rows)))
	return rows, nil
}

func sourceName(s string) string {
	if s == "" {
		return SourceProtected
	}
	return s
}
