package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/modelgate/core"
	"github.com/hupe1980/modelgate/logging"
)

// Policy configures the retry behavior.
type Policy struct {
	// MaxAttempts is the maximum number of attempts, including the initial one.
	// Values below 1 are normalized to the default.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the wait before the first retry. Attempt i (0-indexed)
	// that fails transiently waits BaseDelay × Multiplier^i.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the exponential backoff factor.
	// Default: 2.0
	Multiplier float64

	// Jitter adds up to +25% randomness to each wait to avoid synchronized
	// retries. The expected wait stays monotonically non-decreasing across
	// attempts.
	Jitter bool

	// OnRetry, when set, is called before each wait with the 1-based attempt
	// number that just failed, the error and the computed delay.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Logger records retry activity. Nil disables logging.
	Logger logging.Logger
}

// DefaultPolicy returns the policy used when callers do not supply one.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// normalized returns a copy of p with defaults applied to zero/invalid fields.
func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}
	return p
}

// delay computes the wait after the given 0-indexed failed attempt.
func (p Policy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.MaxDelay || d < 0 {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d += time.Duration(rand.Int64N(int64(d/4) + 1))
	}
	return d
}

// Do runs op with bounded exponential backoff. It returns the first successful
// result. Errors that are not transient (see core.IsTransient) propagate
// immediately without further attempts. When all attempts fail transiently the
// last transient error is returned unchanged so callers can still distinguish
// its class.
func Do[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	p := policy.normalized()
	logger := logging.OrNoOp(p.Logger)

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("retry succeeded", "attempt", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !core.IsTransient(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.delay(attempt)
		logger.Warn("transient provider error, retrying",
			"reason", string(core.TransientReasonOf(err)),
			"attempt", attempt+1,
			"max_attempts", p.MaxAttempts,
			"delay", delay,
		)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	logger.Warn("retries exhausted",
		"attempts", p.MaxAttempts,
		"reason", string(core.TransientReasonOf(lastErr)),
	)

	return zero, lastErr
}
