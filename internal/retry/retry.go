package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Policy configures exponential backoff for a fallible operation.
// The zero value retries nothing; use one of the profile constructors
// or fill the fields explicitly.
type Policy struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool

	// Retryable, when non-nil, restricts which failures are retried.
	// A failure it rejects is returned immediately without consuming
	// an attempt.
	Retryable func(error) bool

	Logger zerolog.Logger
}

// Exhausted wraps the last failure after all retries are spent.
type Exhausted struct {
	Attempts int
	Last     error
}

func (e *Exhausted) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *Exhausted) Unwrap() error { return e.Last }

// ConnectionFailure marks errors eligible for the connection-restricted
// profiles. Implemented by the CDP connection and proxy error types.
type ConnectionFailure interface {
	ConnectionFailure() bool
}

// ProxyFailure marks proxy-layer connection errors.
type ProxyFailure interface {
	ProxyFailure() bool
}

func IsConnectionFailure(err error) bool {
	var cf ConnectionFailure
	return errors.As(err, &cf) && cf.ConnectionFailure()
}

func IsProxyFailure(err error) bool {
	var pf ProxyFailure
	return errors.As(err, &pf) && pf.ProxyFailure()
}

// DelayForAttempt computes the sleep before retry number attempt (0-indexed).
// base = BaseDelay * ExponentialBase^attempt, capped at MaxDelay. With Jitter
// the result is drawn uniformly from [0, base).
func (p Policy) DelayForAttempt(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.ExponentialBase
	if base <= 0 {
		base = 2.0
	}
	d := float64(p.BaseDelay) * math.Pow(base, float64(attempt))
	if p.MaxDelay > 0 {
		d = math.Min(d, float64(p.MaxDelay))
	}
	if d <= 0 {
		return 0
	}
	if p.Jitter {
		d = rand.Float64() * d
	}
	return time.Duration(d)
}

// Execute calls fn until it succeeds, the policy is exhausted, a
// non-retryable failure occurs, or ctx is canceled.
func (p Policy) Execute(ctx context.Context, fn func() error) error {
	var last error
	for attempt := 0; ; attempt++ {
		last = fn()
		if last == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if IsProxyFailure(last) {
			// The math is unchanged; this is a configuration hint only.
			p.Logger.Warn().Err(last).
				Msg("proxy connection failed; check proxy_host/proxy_port settings")
		}
		if attempt >= p.MaxRetries {
			return &Exhausted{Attempts: attempt + 1, Last: last}
		}
		select {
		case <-time.After(p.DelayForAttempt(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
