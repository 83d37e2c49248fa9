package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/logging"
)

var (
	// ErrLoginFailed is returned when the retry policy is exhausted.
	ErrLoginFailed = errors.New("login failed")

	// ErrLoginRequired is returned when no valid token is cached and the
	// Authenticator has no Prompter.
	ErrLoginRequired = errors.New("no valid cached token; run an interactive command to log in")
)

// Validator probes whether a token is still accepted by the API.
type Validator interface {
	Validate(ctx context.Context, token string) (bool, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token string) (bool, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, token string) (bool, error) {
	return f(ctx, token)
}

// Authenticator produces a bearer token for the portal API: cached if still
// valid, otherwise by prompting for credentials.
type Authenticator struct {
	store     TokenStore
	validator Validator
	exchanger Exchanger
	prompter  Prompter
	policy    RetryPolicy
	now       func() time.Time
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithPrompter enables interactive login.
func WithPrompter(p Prompter) Option {
	return func(a *Authenticator) { a.prompter = p }
}

// WithRetryPolicy sets the login retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(a *Authenticator) { a.policy = p }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithMetrics records login outcomes.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// New creates an Authenticator. Without WithPrompter it only ever returns
// cached tokens.
func New(store TokenStore, validator Validator, exchanger Exchanger, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:     store,
		validator: validator,
		exchanger: exchanger,
		policy:    DefaultRetryPolicy(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.WithOperation(a.logger, "auth")
	return a
}

// Token returns a valid token, logging in interactively when necessary.
// A freshly obtained token overwrites the cache.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	token, ok, err := a.Cached(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		a.metrics.RecordLoginAttempt(ctx, instrumentation.LoginResultCached)
		return token, nil
	}

	if a.prompter == nil {
		return "", ErrLoginRequired
	}

	token, err = a.login(ctx)
	if err != nil {
		return "", err
	}
	if err := a.store.Save(token); err != nil {
		return "", fmt.Errorf("failed to cache token: %w", err)
	}
	a.logger.Debug("cached new token", slog.String("token", logging.SanitizeToken(token)))
	return token, nil
}

// Cached returns the stored token if it is present, unexpired and accepted by
// the API. An unreadable cache is treated as empty.
func (a *Authenticator) Cached(ctx context.Context) (string, bool, error) {
	token, err := a.store.Load()
	if err != nil {
		a.logger.Warn("ignoring unreadable token cache", logging.Err(err))
		return "", false, nil
	}
	if token == "" {
		return "", false, nil
	}

	if TokenExpired(token, a.now()) {
		a.logger.Info("cached token expired")
		return "", false, nil
	}

	valid, err := a.validator.Validate(ctx, token)
	if err != nil {
		return "", false, fmt.Errorf("failed to validate cached token: %w", err)
	}
	if !valid {
		a.logger.Info("cached token rejected by API")
		return "", false, nil
	}
	return token, true, nil
}

func (a *Authenticator) login(ctx context.Context) (string, error) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		username, password, err := a.prompter.Credentials(ctx)
		if err != nil {
			return "", backoff.Permanent(fmt.Errorf("failed to read credentials: %w", err))
		}

		token, err := a.exchanger.Exchange(ctx, username, password)
		if errors.Is(err, ErrCredentialsRejected) {
			a.metrics.RecordLoginAttempt(ctx, instrumentation.LoginResultRejected)
			a.logger.Warn("login rejected", slog.Int("attempt", attempts), logging.Err(err))
			return "", err
		}
		if err != nil {
			return "", backoff.Permanent(err)
		}

		a.metrics.RecordLoginAttempt(ctx, instrumentation.LoginResultSuccess)
		return token, nil
	}

	token, err := backoff.Retry(ctx, op, a.policy.options()...)
	if err != nil {
		if errors.Is(err, ErrCredentialsRejected) {
			return "", fmt.Errorf("%w after %d attempts: %w", ErrLoginFailed, attempts, err)
		}
		return "", err
	}
	return token, nil
}

// TokenExpired reports whether token is a JWT whose exp claim is not after now.
// Tokens that are not JWTs, or carry no exp claim, are never considered expired
// here; the API probe decides for them.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
