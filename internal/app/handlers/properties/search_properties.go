package properties

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"staysearch/internal/app/dto"
	"staysearch/internal/app/queries"
	appsearch "staysearch/internal/app/search"
	domain "staysearch/internal/domain/search"
)

const searchPropertiesKey = "properties.search"

// SearchPropertiesQuery is a free-text search with optional structured filters.
type SearchPropertiesQuery struct {
	Query         string
	Amenities     []string
	PropertyTypes []string
}

func (q SearchPropertiesQuery) Key() string { return searchPropertiesKey }

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, req appsearch.Request) (domain.Result, error)
}

// Summarizer writes a short overview of search results.
type Summarizer interface {
	Summarize(ctx context.Context, query string, props []domain.Property) (string, error)
}

var ErrSearcherMissing = errors.New("properties: search engine missing")

// SearchPropertiesHandler answers SearchPropertiesQuery. Returned properties
// are remembered for detail lookups.
type SearchPropertiesHandler struct {
	Engine         Searcher
	Recent         *RecentProperties
	Summarizer     Summarizer
	SummaryTimeout time.Duration
	Logger         *slog.Logger
}

func (h *SearchPropertiesHandler) Handle(ctx context.Context, q SearchPropertiesQuery) (dto.SearchResults, error) {
	if h.Engine == nil {
		return dto.SearchResults{}, ErrSearcherMissing
	}
	result, err := h.Engine.Search(ctx, appsearch.Request{
		Query: q.Query,
		Filters: domain.Filters{
			Amenities:     append([]string(nil), q.Amenities...),
			PropertyTypes: append([]string(nil), q.PropertyTypes...),
		},
	})
	if err != nil {
		return dto.SearchResults{}, err
	}
	h.Recent.Remember(result.Properties)
	out := dto.MapSearch(result, result.Criteria.RawQuery)
	out.Summary = h.summary(ctx, result)
	return out, nil
}

func (h *SearchPropertiesHandler) summary(ctx context.Context, result domain.Result) string {
	fallback := fmt.Sprintf("Found %d properties matching your search.", len(result.Properties))
	if h.Summarizer == nil || len(result.Properties) == 0 {
		return fallback
	}
	if h.SummaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.SummaryTimeout)
		defer cancel()
	}
	got, err := h.Summarizer.Summarize(ctx, result.Criteria.RawQuery, result.Properties)
	if err != nil || got == "" {
		if h.Logger != nil {
			h.Logger.Warn("search summary unavailable, using default", "error", err)
		}
		return fallback
	}
	return got
}

var _ queries.Handler[SearchPropertiesQuery, dto.SearchResults] = (*SearchPropertiesHandler)(nil)
