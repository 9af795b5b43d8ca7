package properties

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"staysearch/internal/app/dto"
	"staysearch/internal/app/interpret"
	"staysearch/internal/app/queries"
)

const (
	suggestKey     = "properties.suggest"
	suggestionSize = 5
)

// SuggestQuery asks for completions of a partially typed search.
type SuggestQuery struct {
	Partial string
}

func (q SuggestQuery) Key() string { return suggestKey }

// Suggester generates search suggestions, usually through the ranking collaborator.
type Suggester interface {
	Suggest(ctx context.Context, partial string) ([]string, error)
}

var defaultSuggestions = []string{
	"Find a place in San Francisco",
	"Beach house in Miami",
	"Apartment in New York",
	"Villa with pool",
	"Pet-friendly accommodation",
}

// SuggestHandler answers SuggestQuery, falling back to static suggestions.
type SuggestHandler struct {
	Suggester Suggester
	Timeout   time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

func (h *SuggestHandler) Handle(ctx context.Context, q SuggestQuery) (dto.Suggestions, error) {
	partial := interpret.Sanitize(q.Partial)
	return dto.Suggestions{Suggestions: h.suggest(ctx, partial), Timestamp: h.now()}, nil
}

func (h *SuggestHandler) suggest(ctx context.Context, partial string) []string {
	if h.Suggester == nil || utf8.RuneCountInString(partial) < 2 {
		return append([]string(nil), defaultSuggestions...)
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	got, err := h.Suggester.Suggest(ctx, partial)
	if err != nil && h.Logger != nil {
		h.Logger.Warn("suggestions unavailable, using templates", "error", err)
	}
	out := make([]string, 0, suggestionSize)
	for _, s := range got {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == suggestionSize {
			return out
		}
	}
	if len(out) > 0 && err == nil {
		return out
	}
	return templated(partial)
}

func templated(partial string) []string {
	return []string{
		partial + " in San Francisco",
		partial + " in Miami",
		partial + " in New York",
		partial + " with pool",
		partial + " for families",
	}
}

func (h *SuggestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ queries.Handler[SuggestQuery, dto.Suggestions] = (*SuggestHandler)(nil)
