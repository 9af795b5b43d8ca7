package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy retries transient failures with capped exponential delays: base, 2*base, 4*base...
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Cap        time.Duration
	Logger     *slog.Logger
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Base: time.Second, Cap: 60 * time.Second}
}

// Delay returns the wait before retry number attempt (zero based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.base()
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.cap() {
			return p.cap()
		}
	}
	if d > p.cap() {
		return p.cap()
	}
	return d
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.base()
	bo.MaxInterval = p.cap()
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// Do runs op until it succeeds, fails permanently, retries run out or ctx ends.
// The last failure from op is returned rather than a bare context error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error, transient func(error) bool) error {
	var lastErr error
	operation := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if transient != nil && !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		if p.Logger != nil {
			p.Logger.Debug("retrying after transient failure", "attempt", attempt, "wait", wait, "error", err)
		}
	}
	var bo backoff.BackOff = p.newBackOff()
	bo = backoff.WithMaxRetries(bo, uint64(max(p.MaxRetries, 0)))
	bo = backoff.WithContext(bo, ctx)
	err := backoff.RetryNotify(operation, bo, notify)
	if err != nil && lastErr != nil && ctx.Err() != nil {
		return lastErr
	}
	return err
}

func (p RetryPolicy) base() time.Duration {
	if p.Base <= 0 {
		return time.Second
	}
	return p.Base
}

func (p RetryPolicy) cap() time.Duration {
	if p.Cap <= 0 {
		return 60 * time.Second
	}
	return p.Cap
}
