package properties

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/app/dto"
	"staysearch/internal/app/middleware"
	"staysearch/internal/app/queries"
	appsearch "staysearch/internal/app/search"
	domain "staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
)

type detailSource struct {
	name string
	docs map[string]map[string]any
	err  error
}

func (s detailSource) Name() string { return s.name }

func (s detailSource) Details(_ context.Context, id string) (domain.RawListing, error) {
	if s.err != nil {
		return domain.RawListing{}, s.err
	}
	doc, ok := s.docs[id]
	if !ok {
		return domain.RawListing{}, domain.NotFound(id)
	}
	return domain.RawListing{Source: s.name, Shape: domain.ShapeCatalog, Fields: doc}, nil
}

type enhancerFunc func(ctx context.Context, p domain.Property) (domain.Insights, error)

func (f enhancerFunc) Enhance(ctx context.Context, p domain.Property) (domain.Insights, error) {
	return f(ctx, p)
}

type summarizerFunc func(ctx context.Context, query string, props []domain.Property) (string, error)

func (f summarizerFunc) Summarize(ctx context.Context, query string, props []domain.Property) (string, error) {
	return f(ctx, query, props)
}

func detailsBus(h *GetPropertyHandler) queries.Bus {
	bus := queries.NewInMemoryBus()
	queries.Register(bus, h)
	return middleware.ChainQueries(bus, middleware.QueryValidation(Validator{}))
}

func TestGetPropertyFromRecentSearch(t *testing.T) {
	recent := NewRecentProperties(10)
	engine := searcherFunc(func(context.Context, appsearch.Request) (domain.Result, error) {
		return domain.Result{
			Properties: []domain.Property{{ID: "rapid-9", Title: "Sea view flat", Price: money.Must(18000, "EUR")}},
			Criteria:   domain.DefaultCriteria("flat in Lisbon"),
		}, nil
	})
	search := &SearchPropertiesHandler{Engine: engine, Recent: recent}
	_, err := search.Handle(context.Background(), SearchPropertiesQuery{Query: "flat in Lisbon"})
	require.NoError(t, err)

	enhancer := enhancerFunc(func(_ context.Context, p domain.Property) (domain.Insights, error) {
		return domain.Insights{Highlights: []string{p.Title + " at sunset"}, LocalTips: []string{"Take tram 28"}}, nil
	})
	bus := detailsBus(&GetPropertyHandler{Recent: recent, Enhancer: enhancer})

	got, err := queries.Ask[GetPropertyQuery, dto.PropertyDetails](context.Background(), bus, GetPropertyQuery{ID: "rapid-9"})

	require.NoError(t, err)
	assert.Equal(t, "Sea view flat", got.Title)
	assert.Equal(t, 180.0, got.Price.Amount)
	assert.Equal(t, []string{"Sea view flat at sunset"}, got.Highlights)
	assert.Equal(t, fallbackInsights.BestFor, got.BestFor)
	assert.True(t, got.AIEnhanced)
}

func TestGetPropertyFromSourcesWithFallbackInsights(t *testing.T) {
	missing := detailSource{name: "mongo", docs: map[string]map[string]any{}}
	fixtures := detailSource{name: "fixtures", docs: map[string]map[string]any{
		"tx-1": {"id": "tx-1", "title": "Ranch house", "price": 1200.0, "bedrooms": 11},
	}}
	recent := NewRecentProperties(10)
	h := &GetPropertyHandler{
		Recent:  recent,
		Sources: []DetailSource{missing, fixtures},
		Enhancer: enhancerFunc(func(context.Context, domain.Property) (domain.Insights, error) {
			return domain.Insights{}, errors.New("quota exceeded")
		}),
	}

	got, err := queries.Ask[GetPropertyQuery, dto.PropertyDetails](context.Background(), detailsBus(h), GetPropertyQuery{ID: " tx-1 "})

	require.NoError(t, err)
	assert.Equal(t, "tx-1", got.ID)
	assert.Equal(t, 11, got.Bedrooms)
	assert.Equal(t, fallbackInsights.Highlights, got.Highlights)
	assert.Equal(t, fallbackInsights.LocalTips, got.LocalTips)
	assert.False(t, got.AIEnhanced)
	assert.Equal(t, 1, recent.Len(), "looked-up properties are remembered")
}

func TestGetPropertyFailures(t *testing.T) {
	ctx := context.Background()
	empty := detailSource{name: "fixtures", docs: map[string]map[string]any{}}
	broken := detailSource{name: "mongo", err: errors.New("connection refused")}

	_, err := queries.Ask[GetPropertyQuery, dto.PropertyDetails](ctx, detailsBus(&GetPropertyHandler{Sources: []DetailSource{empty}}), GetPropertyQuery{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = queries.Ask[GetPropertyQuery, dto.PropertyDetails](ctx, detailsBus(&GetPropertyHandler{Sources: []DetailSource{empty, broken}}), GetPropertyQuery{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrUpstreamError)

	for _, id := range []string{"", "  ", "../etc/passwd", strings.Repeat("a", maxIDLength+1)} {
		_, err = queries.Ask[GetPropertyQuery, dto.PropertyDetails](ctx, detailsBus(&GetPropertyHandler{}), GetPropertyQuery{ID: id})
		assert.ErrorIs(t, err, domain.ErrValidation, id)
	}
}

func TestSearchSummary(t *testing.T) {
	engine := searcherFunc(func(context.Context, appsearch.Request) (domain.Result, error) {
		return domain.Result{
			Properties: []domain.Property{{ID: "a"}, {ID: "b"}},
			Criteria:   domain.DefaultCriteria("cabin"),
		}, nil
	})
	ctx := context.Background()

	res, err := (&SearchPropertiesHandler{Engine: engine}).Handle(ctx, SearchPropertiesQuery{Query: "cabin"})
	require.NoError(t, err)
	assert.Equal(t, "Found 2 properties matching your search.", res.Summary)

	var gotQuery string
	summarizer := summarizerFunc(func(_ context.Context, query string, props []domain.Property) (string, error) {
		gotQuery = query
		return "Two cosy cabins.", nil
	})
	res, err = (&SearchPropertiesHandler{Engine: engine, Summarizer: summarizer}).Handle(ctx, SearchPropertiesQuery{Query: "cabin"})
	require.NoError(t, err)
	assert.Equal(t, "Two cosy cabins.", res.Summary)
	assert.Equal(t, "cabin", gotQuery)

	failing := summarizerFunc(func(context.Context, string, []domain.Property) (string, error) {
		return "", errors.New("timeout")
	})
	res, err = (&SearchPropertiesHandler{Engine: engine, Summarizer: failing}).Handle(ctx, SearchPropertiesQuery{Query: "cabin"})
	require.NoError(t, err)
	assert.Equal(t, "Found 2 properties matching your search.", res.Summary)
}
