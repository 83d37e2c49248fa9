package fsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/datendrehschei/fsen-admin/internal/auth"
	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/logging"
	"github.com/datendrehschei/fsen-admin/internal/permissions"
)

// DefaultBaseURL is the portal API root.
const DefaultBaseURL = "https://fsen.datendrehschei.be/api/v1"

// DefaultExcludedUser is the operator account left out of permission lists.
const DefaultExcludedUser = "finanzreferat"

// Client is a read-only client for the portal REST API.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// WithTransport sets the underlying transport the bearer token is added on top of.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithMetrics records every request.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *clientOptions) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a client sending token as bearer credential. An empty
// baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	o := clientOptions{timeout: 30 * time.Second, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var rt http.RoundTripper = o.transport
	if token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   o.transport,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: rt, Timeout: o.timeout},
		metrics: o.metrics,
		logger:  o.logger,
	}
}

// TokenURL returns the password-grant endpoint below baseURL.
func TokenURL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/token"
}

// NewValidator returns an auth.Validator that probes tokens with Me.
func NewValidator(baseURL string, opts ...Option) auth.Validator {
	return auth.ValidatorFunc(func(ctx context.Context, token string) (bool, error) {
		return NewClient(baseURL, token, opts...).Me(ctx)
	})
}

// Me probes the token with GET /user/me. A 401 or 403 means the token is not
// valid; other failures are errors so that an outage does not trigger a login.
func (c *Client) Me(ctx context.Context) (bool, error) {
	err := c.get(ctx, "me", "/user/me", nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return false, nil
	}
	return false, err
}

// Groups fetches the protected dataset, keyed by group id.
func (c *Client) Groups(ctx context.Context) (map[string]Group, error) {
	return c.groups(ctx, "groups", "/data")
}

// PublicSnapshot fetches the public dataset, keyed by group id.
func (c *Client) PublicSnapshot(ctx context.Context) (map[string]Group, error) {
	return c.groups(ctx, "public_snapshot", "/data/data.json")
}

func (c *Client) groups(ctx context.Context, op, path string) (map[string]Group, error) {
	var records map[string]groupRecord
	if err := c.get(ctx, op, path, &records); err != nil {
		return nil, err
	}
	groups := make(map[string]Group, len(records))
	for id, r := range records {
		groups[id] = r.group(id)
	}
	c.logger.Debug("fetched groups", logging.Operation(op), slog.Int("count", len(groups)))
	return groups, nil
}

type userRecord struct {
	FullName    string                   `json:"full_name"`
	Permissions []permissions.Permission `json:"permissions"`
}

// Permissions fetches GET /user and inverts the per-user records into
// per-group lists. Each entry carries the user's name and full name. Users
// named in exclude are skipped. Lists are ordered by username.
func (c *Client) Permissions(ctx context.Context, exclude ...string) (map[string][]permissions.Permission, error) {
	var users map[string]userRecord
	if err := c.get(ctx, "permissions", "/user", &users); err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, u := range exclude {
		skip[u] = true
	}

	usernames := make([]string, 0, len(users))
	for name := range users {
		if !skip[name] {
			usernames = append(usernames, name)
		}
	}
	sort.Strings(usernames)

	byGroup := make(map[string][]permissions.Permission)
	for _, name := range usernames {
		u := users[name]
		for _, p := range u.Permissions {
			p.Username = name
			p.FullName = u.FullName
			byGroup[p.Group] = append(byGroup[p.Group], p)
		}
	}
	return byGroup, nil
}

// PayoutRequests fetches all AFSG payout requests.
func (c *Client) PayoutRequests(ctx context.Context) ([]PayoutRequest, error) {
	var requests []PayoutRequest
	if err := c.get(ctx, "payout_requests", "/payout-request/afsg", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// get issues GET path and decodes the JSON body into out (skipped when nil).
func (c *Client) get(ctx context.Context, op, path string, out any) (err error) {
	ctx, span := instrumentation.StartAPISpan(ctx, op)
	defer span.End()

	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordAPIRequest(ctx, op, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: GET %s: %w", op, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Op: op, Path: path, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
