package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"staysearch/internal/domain/search"
)

const RapidAPIName = "rapidapi"

// RapidAPI queries the Airbnb search API published on RapidAPI.
type RapidAPI struct {
	BaseURL  string
	Host     string
	Key      string
	Currency string
	Client   *http.Client
	Logger   *slog.Logger
}

var ErrRapidAPIKeyMissing = errors.New("rapidapi: api key missing")

// NewRapidAPI fills sane defaults around the host and key.
func NewRapidAPI(baseURL, host, key string, logger *slog.Logger) *RapidAPI {
	return &RapidAPI{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Host:     host,
		Key:      key,
		Currency: "USD",
		Client:   &http.Client{Timeout: 30 * time.Second},
		Logger:   logger,
	}
}

func (r *RapidAPI) Name() string { return RapidAPIName }

type rapidResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Data    struct {
		List []map[string]any `json:"list"`
	} `json:"data"`
}

func (r *RapidAPI) Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error) {
	if r.Key == "" {
		return nil, search.Upstream(RapidAPIName, target.ID, ErrRapidAPIKeyMissing)
	}
	query := url.Values{}
	query.Set("location", locationQuery(target))
	query.Set("currency", r.currency())
	query.Set("page", "1")
	if criteria.GuestsMin > 0 {
		query.Set("adults", strconv.Itoa(criteria.GuestsMin))
	} else {
		query.Set("adults", "1")
	}
	if criteria.BedroomsMin > 0 {
		query.Set("minBedrooms", strconv.Itoa(criteria.BedroomsMin))
	}
	if criteria.PriceMin > 0 {
		query.Set("minPrice", strconv.FormatFloat(criteria.PriceMin, 'f', 0, 64))
	}
	if criteria.PriceMax > 0 {
		query.Set("maxPrice", strconv.FormatFloat(criteria.PriceMax, 'f', 0, 64))
	}

	body, err := r.get(ctx, "/search-location", query)
	if err != nil {
		return nil, err
	}

	var payload rapidResponse
	if err := codec.Unmarshal(body, &payload); err != nil {
		return nil, search.Upstream(RapidAPIName, target.ID, fmt.Errorf("decode response: %w", err))
	}
	if payload.Error {
		return nil, search.Upstream(RapidAPIName, target.ID, fmt.Errorf("api error: %s", payload.Message))
	}

	out := make([]search.RawListing, 0, len(payload.Data.List))
	for _, item := range payload.Data.List {
		if item == nil {
			continue
		}
		out = append(out, search.RawListing{Source: RapidAPIName, Shape: search.ShapeAirbnbAPI, Fields: item})
	}
	if r.Logger != nil {
		r.Logger.Debug("rapidapi listings fetched", "target", target.ID, "count", len(out))
	}
	return out, nil
}

// Ping checks that the key is accepted. Any status below 500 other than
// 401/403 counts as reachable.
func (r *RapidAPI) Ping(ctx context.Context) error {
	if r.Key == "" {
		return ErrRapidAPIKeyMissing
	}
	req, err := r.newRequest(ctx, "/search-location", url.Values{"location": {"Paris"}, "page": {"1"}})
	if err != nil {
		return err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("rapidapi: ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *RapidAPI) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := r.newRequest(ctx, path, query)
	if err != nil {
		return nil, err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, search.UpstreamStatus(RapidAPIName, resp.StatusCode, string(snippet))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (r *RapidAPI) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	endpoint := strings.TrimRight(r.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", r.Key)
	req.Header.Set("X-RapidAPI-Host", r.Host)
	return req, nil
}

func (r *RapidAPI) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return http.DefaultClient
}

func (r *RapidAPI) currency() string {
	if r.Currency == "" {
		return "USD"
	}
	return r.Currency
}

func locationQuery(target search.LocationTarget) string {
	if target.City != "" && target.Country != "" {
		return target.City + ", " + target.Country
	}
	if target.City != "" {
		return target.City
	}
	return target.DisplayName
}
