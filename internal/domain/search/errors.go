package search

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies failures surfaced by the search pipeline.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindCircuitOpen        ErrorKind = "circuit_open"
	KindUpstreamTimeout    ErrorKind = "upstream_timeout"
	KindUpstreamError      ErrorKind = "upstream_error"
	KindAllSourcesFailed   ErrorKind = "all_sources_failed"
	KindRankingUnavailable ErrorKind = "ranking_unavailable"
	KindNotFound           ErrorKind = "not_found"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation         = errors.New("search: invalid request")
	ErrCircuitOpen        = errors.New("search: circuit open")
	ErrUpstreamTimeout    = errors.New("search: upstream timeout")
	ErrUpstreamError      = errors.New("search: upstream error")
	ErrAllSourcesFailed   = errors.New("search: all sources failed")
	ErrRankingUnavailable = errors.New("search: ranking unavailable")
	ErrNotFound           = errors.New("search: property not found")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindCircuitOpen:
		return ErrCircuitOpen
	case KindUpstreamTimeout:
		return ErrUpstreamTimeout
	case KindAllSourcesFailed:
		return ErrAllSourcesFailed
	case KindRankingUnavailable:
		return ErrRankingUnavailable
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrUpstreamError
	}
}

// Failure records one (source, target) pair that produced no listings.
type Failure struct {
	Source string    `json:"source"`
	Target string    `json:"target"`
	Reason ErrorKind `json:"reason"`
}

// Error is the typed failure carried between pipeline stages.
type Error struct {
	Kind     ErrorKind
	Source   string
	Target   string
	Status   int
	Message  string
	Failures []Failure
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())
	if e.Source != "" {
		b.WriteString(" [")
		b.WriteString(e.Source)
		if e.Target != "" {
			b.WriteString("/")
			b.WriteString(e.Target)
		}
		b.WriteString("]")
	}
	if e.Status > 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Validation builds a client-input error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// CircuitOpen reports a call short-circuited because the source is unhealthy.
func CircuitOpen(source, target string, cause error) *Error {
	return &Error{Kind: KindCircuitOpen, Source: source, Target: target, Err: cause}
}

// UpstreamTimeout reports a call that exceeded its deadline.
func UpstreamTimeout(source, target string, cause error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Source: source, Target: target, Err: cause}
}

// UpstreamStatus reports an upstream answering with a failing HTTP status.
func UpstreamStatus(source string, status int, body string) *Error {
	return &Error{Kind: KindUpstreamError, Source: source, Status: status, Message: strings.TrimSpace(body)}
}

// Upstream wraps a transport or decoding failure from a source.
func Upstream(source, target string, cause error) *Error {
	return &Error{Kind: KindUpstreamError, Source: source, Target: target, Err: cause}
}

// AllSourcesFailed is returned when not a single fetch produced listings.
func AllSourcesFailed(failures []Failure) *Error {
	return &Error{
		Kind:     KindAllSourcesFailed,
		Message:  fmt.Sprintf("%d fetches failed", len(failures)),
		Failures: append([]Failure(nil), failures...),
	}
}

// RankingUnavailable marks a collaborator failure; callers fall back instead of surfacing it.
func RankingUnavailable(message string, cause error) *Error {
	return &Error{Kind: KindRankingUnavailable, Source: "ranking", Message: message, Err: cause}
}

// NotFound reports a property id unknown to every source.
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, Message: id}
}

// KindOf extracts the error kind, treating unknown errors as upstream errors.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUpstreamError
}

// IsTransient reports whether a failed call is worth retrying.
// Timeouts, network errors, 429 and 5xx are transient; 4xx and open circuits are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var typed *Error
	if !errors.As(err, &typed) {
		return true
	}
	switch typed.Kind {
	case KindUpstreamTimeout:
		return true
	case KindUpstreamError:
		return typed.Status == 0 || typed.Status == http.StatusTooManyRequests || typed.Status >= http.StatusInternalServerError
	default:
		return false
	}
}
