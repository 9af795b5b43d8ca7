package properties

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"staysearch/internal/app/dto"
	"staysearch/internal/app/normalize"
	"staysearch/internal/app/queries"
	domain "staysearch/internal/domain/search"
)

const getPropertyKey = "properties.get"

// GetPropertyQuery asks for one property with its insights.
type GetPropertyQuery struct {
	ID string
}

func (q GetPropertyQuery) Key() string { return getPropertyKey }

// DetailSource looks a single listing up by id. Unknown ids yield domain.ErrNotFound.
type DetailSource interface {
	Name() string
	Details(ctx context.Context, id string) (domain.RawListing, error)
}

// Enhancer drafts insights for a property, usually through the ranking collaborator.
type Enhancer interface {
	Enhance(ctx context.Context, p domain.Property) (domain.Insights, error)
}

var fallbackInsights = domain.Insights{
	Highlights: []string{"Great location", "Well-equipped amenities", "Excellent value"},
	BestFor:    "Travelers seeking comfort and convenience",
	LocalTips:  []string{"Explore nearby attractions", "Try local restaurants"},
}

// GetPropertyHandler answers GetPropertyQuery from recent search results
// first, then from sources that support lookups by id.
type GetPropertyHandler struct {
	Recent     *RecentProperties
	Sources    []DetailSource
	Normalizer normalize.Normalizer
	Enhancer   Enhancer
	Timeout    time.Duration
	Logger     *slog.Logger
}

func (h *GetPropertyHandler) Handle(ctx context.Context, q GetPropertyQuery) (dto.PropertyDetails, error) {
	id := strings.TrimSpace(q.ID)
	p, err := h.find(ctx, id)
	if err != nil {
		return dto.PropertyDetails{}, err
	}
	insights, enhanced := h.insights(ctx, p)
	return dto.MapPropertyDetails(p, insights, enhanced), nil
}

func (h *GetPropertyHandler) find(ctx context.Context, id string) (domain.Property, error) {
	if p, ok := h.Recent.Lookup(id); ok {
		return p, nil
	}
	var lastErr error
	for _, src := range h.Sources {
		raw, err := src.Details(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			h.logger().Warn("property lookup failed", "source", src.Name(), "id", id, "error", err)
			lastErr = domain.Upstream(src.Name(), "", err)
			continue
		}
		if c, ok := h.Normalizer.Normalize(raw, domain.LocationTarget{}); ok {
			h.Recent.Remember([]domain.Property{c.Property})
			return c.Property, nil
		}
	}
	if lastErr != nil {
		return domain.Property{}, lastErr
	}
	return domain.Property{}, domain.NotFound(id)
}

func (h *GetPropertyHandler) insights(ctx context.Context, p domain.Property) (domain.Insights, bool) {
	if h.Enhancer == nil {
		return fallbackInsights, false
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	got, err := h.Enhancer.Enhance(ctx, p)
	if err != nil || len(got.Highlights) == 0 {
		h.logger().Warn("property insights unavailable, using defaults", "id", p.ID, "error", err)
		return fallbackInsights, false
	}
	if got.BestFor == "" {
		got.BestFor = fallbackInsights.BestFor
	}
	return got, true
}

func (h *GetPropertyHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ queries.Handler[GetPropertyQuery, dto.PropertyDetails] = (*GetPropertyHandler)(nil)
