package auth

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the interactive login loop.
type RetryPolicy struct {
	// MaxAttempts is the number of credential prompts before giving up.
	// Zero means prompt until the API accepts the credentials.
	MaxAttempts uint

	// InitialDelay is the pause after the first rejected attempt. Zero retries
	// immediately. Later pauses grow exponentially up to MaxDelay.
	InitialDelay time.Duration

	// MaxDelay caps the pause between attempts (default 30s when InitialDelay is set).
	MaxDelay time.Duration
}

// DefaultRetryPolicy prompts without limit and without delay, like an operator
// retyping a password expects.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.InitialDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.RandomizationFactor = 0
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 30 * time.Second
	}
	return b
}

func (p RetryPolicy) options() []backoff.RetryOption {
	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		// An operator may take a while to look up a password.
		backoff.WithMaxElapsedTime(0),
	}
	if p.MaxAttempts > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxAttempts))
	}
	return opts
}
