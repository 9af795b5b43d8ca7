package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }

func TestBreakerOpensAfterThresholdAndShortCircuits(t *testing.T) {
	var mu sync.Mutex
	var transitions []CircuitStatus
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 3, RecoveryTimeout: time.Hour}, nil,
		func(_ string, _, to CircuitStatus) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, r.Execute(ctx, "rapidapi", fail), errBoom)
	}

	called := false
	err := r.Execute(ctx, "rapidapi", func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.False(t, r.Allow("rapidapi"))
	assert.True(t, r.Allow("fixtures"), "breakers are independent per source")

	state := r.State("rapidapi")
	assert.Equal(t, StatusOpen, state.Status)
	require.NotNil(t, state.OpenedAt)
	assert.Equal(t, []CircuitStatus{StatusOpen}, transitions)
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, r.Execute(ctx, "s", fail))
	assert.Equal(t, StatusOpen, r.State("s").Status)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, StatusHalfOpen, r.State("s").Status)

	require.NoError(t, r.Execute(ctx, "s", func() error { return nil }))
	state := r.State("s")
	assert.Equal(t, StatusClosed, state.Status)
	assert.Zero(t, state.ConsecutiveFailures)
	assert.Nil(t, state.OpenedAt)
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, r.Execute(ctx, "s", fail))
	time.Sleep(40 * time.Millisecond)
	require.ErrorIs(t, r.Execute(ctx, "s", fail), errBoom)

	assert.Equal(t, StatusOpen, r.State("s").Status)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 2, RecoveryTimeout: time.Hour}, nil)
	ctx := context.Background()

	err := r.Execute(ctx, "s", func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusClosed, r.State("s").Status)

	require.ErrorIs(t, r.Execute(ctx, "s", fail), errBoom)
	err = r.Execute(ctx, "s", func() error { return fmt.Errorf("fetch: %w", context.Canceled) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(1), r.State("s").ConsecutiveFailures, "cancellation neither resets nor adds failures")

	require.ErrorIs(t, r.Execute(ctx, "s", fail), errBoom)
	assert.Equal(t, StatusOpen, r.State("s").Status)
}

func TestBreakerCancelledTrialDoesNotClose(t *testing.T) {
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, r.Execute(ctx, "s", fail))
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StatusHalfOpen, r.State("s").Status)

	err := r.Execute(ctx, "s", func() error { return fmt.Errorf("fetch: %w", context.Canceled) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusOpen, r.State("s").Status)

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, r.Execute(ctx, "s", func() error { return nil }), "a new trial is admitted after recovery")
	assert.Equal(t, StatusClosed, r.State("s").Status)
}

func TestBreakerHalfOpenAdmitsSingleTrial(t *testing.T) {
	r := NewBreakerRegistry(BreakerSettings{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	require.Error(t, r.Execute(ctx, "s", fail))
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StatusHalfOpen, r.State("s").Status)

	const callers = 8
	var calls atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{})
	errs := make(chan error, callers)

	go func() {
		errs <- r.Execute(ctx, "s", func() error {
			calls.Add(1)
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	var wg sync.WaitGroup
	for i := 0; i < callers-1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Execute(ctx, "s", func() error {
				calls.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	close(release)

	rejected := 0
	for i := 0; i < callers; i++ {
		if err := <-errs; errors.Is(err, ErrCircuitOpen) {
			rejected++
		} else {
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, StatusClosed, r.State("s").Status)
}

func TestSnapshotIsSorted(t *testing.T) {
	r := NewBreakerRegistry(DefaultBreakerSettings(), nil)
	_ = r.Execute(context.Background(), "zeta", func() error { return nil })
	_ = r.Execute(context.Background(), "alpha", func() error { return nil })

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alpha", snap[0].Source)
	assert.Equal(t, "zeta", snap[1].Source)
}

func TestRetryDelaySchedule(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, Base: time.Second, Cap: 5 * time.Second}

	assert.Equal(t, time.Second, p.Delay(0))
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 5*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(10))

	bo := p.newBackOff()
	for i := 0; i < 5; i++ {
		assert.Equal(t, p.Delay(i), bo.NextBackOff(), "attempt %d", i)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Base: time.Millisecond, Cap: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, func(error) bool { return false })

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
}

func TestRetryRetriesTransientThenSucceeds(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, Base: time.Millisecond, Cap: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, func(error) bool { return true })

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, Base: time.Millisecond, Cap: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, func(error) bool { return true })

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContext(t *testing.T) {
	p := RetryPolicy{MaxRetries: 10, Base: time.Hour, Cap: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Do(ctx, func(context.Context) error { return errBoom }, func(error) bool { return true })

	assert.ErrorIs(t, err, errBoom)
	assert.Less(t, time.Since(start), time.Second)
}
