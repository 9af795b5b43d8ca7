package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"staysearch/internal/domain/search"
	"staysearch/internal/infra/resilience"
)

// Source is an upstream listing provider queried once per location target.
type Source interface {
	Name() string
	Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error)
}

// Breaker guards calls per source name.
type Breaker interface {
	Execute(ctx context.Context, source string, fn func() error) error
}

// Retrier re-runs transient failures.
type Retrier interface {
	Do(ctx context.Context, op func(ctx context.Context) error, transient func(error) bool) error
}

// Availability reports the last known health of a source.
type Availability interface {
	Available(name string) bool
}

// Observer records per-call outcomes.
type Observer interface {
	ObserveUpstream(source string, outcome string, took time.Duration)
}

const defaultCallTimeout = 12 * time.Second

var errSourceDown = errors.New("source reported unhealthy by last probe")

// Fetcher performs one guarded upstream call: health gate, circuit breaker,
// retry with backoff and a per-attempt timeout, in that order from the outside in.
type Fetcher struct {
	Breakers    Breaker
	Retry       Retrier
	CallTimeout time.Duration
	Health      Availability
	Metrics     Observer
	Logger      *slog.Logger
}

// Fetch returns listings or a typed *search.Error; it never panics.
func (f *Fetcher) Fetch(ctx context.Context, src Source, target search.LocationTarget, criteria search.SourceCriteria) (listings []search.RawListing, err error) {
	name := src.Name()
	start := time.Now()
	defer func() {
		if f.Metrics != nil {
			f.Metrics.ObserveUpstream(name, outcome(err), time.Since(start))
		}
		if err != nil && f.Logger != nil {
			f.Logger.Warn("upstream fetch failed", "source", name, "target", target.ID, "kind", search.KindOf(err), "error", err)
		}
	}()

	if f.Health != nil && !f.Health.Available(name) {
		return nil, search.CircuitOpen(name, target.ID, errSourceDown)
	}

	attempt := func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, f.callTimeout())
		defer cancel()
		res, callErr := invoke(attemptCtx, src, target, criteria)
		if callErr != nil {
			return classify(attemptCtx, name, target.ID, callErr)
		}
		listings = res
		return nil
	}
	guarded := func() error {
		if f.Retry == nil {
			return attempt(ctx)
		}
		return f.Retry.Do(ctx, attempt, search.IsTransient)
	}

	if f.Breakers == nil {
		err = guarded()
	} else {
		err = f.Breakers.Execute(ctx, name, guarded)
	}
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, search.CircuitOpen(name, target.ID, err)
		}
		return nil, classify(ctx, name, target.ID, err)
	}
	return listings, nil
}

func (f *Fetcher) callTimeout() time.Duration {
	if f.CallTimeout <= 0 {
		return defaultCallTimeout
	}
	return f.CallTimeout
}

func invoke(ctx context.Context, src Source, target search.LocationTarget, criteria search.SourceCriteria) (listings []search.RawListing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source %s panicked: %v", src.Name(), r)
		}
	}()
	return src.Search(ctx, target, criteria)
}

// classify maps any failure onto the pipeline's error kinds.
func classify(ctx context.Context, source, target string, err error) error {
	var typed *search.Error
	if errors.As(err, &typed) {
		if typed.Source == "" {
			typed.Source = source
		}
		if typed.Target == "" {
			typed.Target = target
		}
		return typed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return search.UpstreamTimeout(source, target, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return search.UpstreamTimeout(source, target, err)
	}
	return search.Upstream(source, target, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(search.KindOf(err))
}
