package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/app/handlers/properties"
	"staysearch/internal/app/middleware"
	"staysearch/internal/app/queries"
	appsearch "staysearch/internal/app/search"
	domain "staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
	"staysearch/internal/infra/obs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type engineFunc func(ctx context.Context, req appsearch.Request) (domain.Result, error)

func (f engineFunc) Search(ctx context.Context, req appsearch.Request) (domain.Result, error) {
	return f(ctx, req)
}

func newTestRouter(engine properties.Searcher) *gin.Engine {
	bus := queries.NewInMemoryBus()
	queries.Register(bus, &properties.SearchPropertiesHandler{Engine: engine})
	queries.Register(bus, &properties.SuggestHandler{Now: func() time.Time { return time.Unix(0, 0).UTC() }})
	queries.Register(bus, &properties.GetPropertyHandler{Sources: []properties.DetailSource{catalogSource{}}})
	chained := middleware.ChainQueries(bus, middleware.QueryValidation(properties.Validator{}))
	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Search:  SearchHandler{Queries: chained},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
	})
}

type catalogSource struct{}

func (catalogSource) Name() string { return "fixtures" }

func (catalogSource) Details(_ context.Context, id string) (domain.RawListing, error) {
	switch id {
	case "tx-1":
		return domain.RawListing{Source: "fixtures", Shape: domain.ShapeCatalog, Fields: map[string]any{"id": "tx-1", "title": "Ranch house", "price": 1200.0}}, nil
	case "broken":
		return domain.RawListing{}, errors.New("connection refused")
	}
	return domain.RawListing{}, domain.NotFound(id)
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func post(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestSearchSuccess(t *testing.T) {
	var got appsearch.Request
	router := newTestRouter(engineFunc(func(_ context.Context, req appsearch.Request) (domain.Result, error) {
		got = req
		return domain.Result{
			Properties: []domain.Property{
				{ID: "a", Title: "Ranch", Price: money.Must(120000, "USD"), Images: []string{}, Amenities: []string{}},
				{ID: "b", Title: "Lodge", Price: money.Must(90000, "USD"), Images: []string{}, Amenities: []string{}},
			},
			TotalCandidates:  9,
			ProcessingTimeMs: 12.5,
			Criteria:         domain.DefaultCriteria("11 bedroom house in Texas"),
		}, nil
	}))

	rec, body := post(t, router, "/api/v1/search", `{"query":"11 bedroom house in Texas","filters":{"amenities":["pool"]}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Found 2 properties matching your search.", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(9), data["totalCandidates"])
	assert.Equal(t, "11 bedroom house in Texas", data["query"])
	assert.Equal(t, 12.5, data["processingTime"])
	assert.Len(t, data["properties"], 2)
	assert.Equal(t, []string{"pool"}, got.Filters.Amenities)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearchFailures(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		code    int
		message string
	}{
		{"malformed body", `{"query": 7}`, nil, http.StatusBadRequest, "rephrase"},
		{"empty query", `{"query": "  "}`, nil, http.StatusBadRequest, "rephrase"},
		{"all sources failed", `{"query": "loft in Paris"}`, domain.AllSourcesFailed([]domain.Failure{{Source: "rapidapi", Target: "paris-fr", Reason: domain.KindCircuitOpen}}), http.StatusServiceUnavailable, "temporarily unavailable"},
		{"unexpected", `{"query": "loft in Paris"}`, assert.AnError, http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(engineFunc(func(context.Context, appsearch.Request) (domain.Result, error) {
				return domain.Result{}, tc.err
			}))
			rec, body := post(t, router, "/api/v1/search", tc.body)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["message"], tc.message)
			assert.NotContains(t, body, "data")
		})
	}
}

func TestSearchWithoutBus(t *testing.T) {
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{Search: SearchHandler{}})
	rec, body := post(t, router, "/api/v1/search", `{"query":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestSuggestions(t *testing.T) {
	router := newTestRouter(nil)

	rec, body := post(t, router, "/api/v1/suggestions", `{"partial_query":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["suggestions"], 5)
	assert.Equal(t, "1970-01-01T00:00:00Z", body["timestamp"])

	rec, _ = post(t, router, "/api/v1/suggestions", `{"partial_query":"`+strings.Repeat("x", 201)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = post(t, router, "/api/v1/suggestions", `{"partial_query": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperationalRoutes(t *testing.T) {
	router := newTestRouter(nil)
	for path, want := range map[string]int{
		"/livez":   http.StatusOK,
		"/readyz":  http.StatusOK,
		"/health":  http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestHealthDown(t *testing.T) {
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{Report: func(context.Context) obs.HealthReport {
		return obs.HealthReport{Status: "down", Dependencies: map[string]string{"rapidapi": "down"}}
	}}, Handlers{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rapidapi":"down"`)
}

func TestPropertyDetails(t *testing.T) {
	router := newTestRouter(nil)

	rec, body := get(t, router, "/api/v1/property/tx-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tx-1", body["id"])
	assert.Equal(t, "Ranch house", body["title"])
	assert.Len(t, body["aiHighlights"], 3)
	assert.Equal(t, "Travelers seeking comfort and convenience", body["bestFor"])
	assert.Equal(t, false, body["aiEnhanced"])

	for path, code := range map[string]int{
		"/api/v1/property/missing": http.StatusNotFound,
		"/api/v1/property/broken":  http.StatusServiceUnavailable,
		"/api/v1/property/a%20b":   http.StatusBadRequest,
	} {
		rec, body := get(t, router, path)
		assert.Equal(t, code, rec.Code, path)
		assert.Equal(t, false, body["success"], path)
	}
}

func TestSearchUsesSummaryAsMessage(t *testing.T) {
	bus := queries.NewInMemoryBus()
	queries.Register(bus, &properties.SearchPropertiesHandler{
		Engine: engineFunc(func(context.Context, appsearch.Request) (domain.Result, error) {
			return domain.Result{Properties: []domain.Property{{ID: "a"}}, Criteria: domain.DefaultCriteria("cabin")}, nil
		}),
		Summarizer: summaryFunc(func(context.Context, string, []domain.Property) (string, error) {
			return "One quiet cabin by the lake.", nil
		}),
	})
	router := NewRouter(obs.Middleware{}, obs.HealthHandlers{}, Handlers{Search: SearchHandler{Queries: bus}})

	rec, body := post(t, router, "/api/v1/search", `{"query":"cabin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "One quiet cabin by the lake.", body["message"])
}

type summaryFunc func(ctx context.Context, query string, props []domain.Property) (string, error)

func (f summaryFunc) Summarize(ctx context.Context, query string, props []domain.Property) (string, error) {
	return f(ctx, query, props)
}
