package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", UpstreamTimeout("rapidapi", "austin-us", context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUpstreamError)
	assert.Equal(t, KindUpstreamTimeout, KindOf(err))
	assert.Contains(t, err.Error(), "[rapidapi/austin-us]")
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", UpstreamTimeout("s", "t", nil), true},
		{"network", Upstream("s", "t", errors.New("connection reset")), true},
		{"server error", UpstreamStatus("s", 503, "unavailable"), true},
		{"rate limited", UpstreamStatus("s", 429, ""), true},
		{"bad request", UpstreamStatus("s", 400, "bad"), false},
		{"open circuit", CircuitOpen("s", "t", nil), false},
		{"validation", Validation("empty"), false},
		{"untyped", errors.New("boom"), true},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestAllSourcesFailedCopiesFailures(t *testing.T) {
	failures := []Failure{{Source: "a", Target: "x", Reason: KindCircuitOpen}}
	err := AllSourcesFailed(failures)
	failures[0].Source = "mutated"

	assert.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Equal(t, "a", err.Failures[0].Source)
	assert.Equal(t, KindUpstreamError, KindOf(errors.New("plain")))
}
