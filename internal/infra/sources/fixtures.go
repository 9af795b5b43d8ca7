package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"staysearch/internal/domain/search"
)

// FixturesName is the source name used in failures, metrics and health.
const FixturesName = "fixtures"

// Fixtures serves catalog-shaped listings loaded from a JSON file.
type Fixtures struct {
	mu      sync.RWMutex
	entries []fixtureEntry
	limit   int
}

type fixtureEntry struct {
	meta   fixtureMeta
	fields map[string]any
}

// fixtureMeta holds the fields the source filters on. Everything else stays
// in the raw document for the normalizer.
type fixtureMeta struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        string          `json:"propertyType"`
	City        string          `json:"city"`
	Country     string          `json:"country"`
	Location    fixtureLocation `json:"location"`
	Guests      int             `json:"guests"`
	Bedrooms    int             `json:"bedrooms"`
	Price       any             `json:"price"`
	Amenities   []string        `json:"amenities"`
}

type fixtureLocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

func (m fixtureMeta) city() string {
	if m.Location.City != "" {
		return m.Location.City
	}
	return m.City
}

func (m fixtureMeta) price() float64 {
	v := m.Price
	if obj, ok := v.(map[string]any); ok {
		v = obj["amount"]
	}
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	}
	return 0
}

func (m fixtureMeta) country() string {
	if m.Location.Country != "" {
		return m.Location.Country
	}
	return m.Country
}

// NewFixtures returns an empty source. Limit caps listings per call, zero means 50.
func NewFixtures(limit int) *Fixtures {
	if limit <= 0 {
		limit = 50
	}
	return &Fixtures{limit: limit}
}

func (f *Fixtures) Name() string { return FixturesName }

// Load reads the fixture file. A missing or empty file leaves the source empty.
func (f *Fixtures) Load(path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var docs []jsoniter.RawMessage
	if err := codec.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	entries := make([]fixtureEntry, 0, len(docs))
	for i, doc := range docs {
		var fields map[string]any
		if err := codec.Unmarshal(doc, &fields); err != nil {
			logger.Error("fixture invalid", "index", i, "error", err)
			continue
		}
		var meta fixtureMeta
		if err := codec.Unmarshal(doc, &meta); err != nil {
			logger.Error("fixture invalid", "index", i, "error", err)
			continue
		}
		entries = append(entries, fixtureEntry{meta: meta, fields: fields})
	}

	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()
	logger.Info("listing fixtures loaded", "path", path, "count", len(entries))
	return nil
}

// Add appends documents directly.
func (f *Fixtures) Add(docs ...map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range docs {
		raw, err := codec.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode fixture: %w", err)
		}
		var meta fixtureMeta
		if err := codec.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("decode fixture: %w", err)
		}
		f.entries = append(f.entries, fixtureEntry{meta: meta, fields: doc})
	}
	return nil
}

func (f *Fixtures) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// Search returns listings in the target. Guest, bedroom, price and type
// filters narrow the set, and are dropped again when nothing would be left.
func (f *Fixtures) Search(ctx context.Context, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	local := make([]fixtureEntry, 0)
	for _, entry := range f.entries {
		if inTarget(entry.meta, target) {
			local = append(local, entry)
		}
	}
	narrowed := make([]fixtureEntry, 0, len(local))
	for _, entry := range local {
		if matchesCriteria(entry.meta, criteria) {
			narrowed = append(narrowed, entry)
		}
	}
	if len(narrowed) == 0 {
		narrowed = local
	}
	if len(narrowed) > f.limit {
		narrowed = narrowed[:f.limit]
	}

	out := make([]search.RawListing, 0, len(narrowed))
	for _, entry := range narrowed {
		out = append(out, search.RawListing{Source: FixturesName, Shape: search.ShapeCatalog, Fields: entry.fields})
	}
	return out, nil
}

// Details returns the listing whose id matches, or a not-found error.
func (f *Fixtures) Details(ctx context.Context, id string) (search.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return search.RawListing{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, entry := range f.entries {
		if v, ok := entry.fields["id"]; ok && fmt.Sprint(v) == id {
			return search.RawListing{Source: FixturesName, Shape: search.ShapeCatalog, Fields: entry.fields}, nil
		}
	}
	return search.RawListing{}, search.NotFound(id)
}

// Ping reports an error when nothing was loaded.
func (f *Fixtures) Ping(context.Context) error {
	if f.Len() == 0 {
		return errors.New("fixtures: no listings loaded")
	}
	return nil
}

func inTarget(meta fixtureMeta, target search.LocationTarget) bool {
	if target.City != "" && strings.EqualFold(meta.city(), target.City) {
		return target.Country == "" || meta.country() == "" || strings.EqualFold(meta.country(), target.Country)
	}
	phrase := strings.ToLower(strings.TrimSpace(target.DisplayName))
	if phrase == "" {
		phrase = strings.ToLower(strings.TrimSpace(target.City))
	}
	return phrase != "" && matchLocation(meta, phrase)
}

func matchLocation(meta fixtureMeta, phrase string) bool {
	for _, field := range []string{meta.city(), meta.country(), meta.Title} {
		if field != "" && strings.Contains(strings.ToLower(field), phrase) {
			return true
		}
	}
	return false
}

func matchesCriteria(meta fixtureMeta, c search.SourceCriteria) bool {
	if c.GuestsMin > 0 && meta.Guests < c.GuestsMin {
		return false
	}
	if c.BedroomsMin > 0 && meta.Bedrooms < c.BedroomsMin {
		return false
	}
	price := meta.price()
	if c.PriceMin > 0 && price > 0 && price < c.PriceMin {
		return false
	}
	if c.PriceMax > 0 && price > c.PriceMax {
		return false
	}
	return propertyTypeMatches(meta, c.PropertyTypes)
}

func propertyTypeMatches(meta fixtureMeta, types []string) bool {
	if len(types) == 0 {
		return true
	}
	haystack := strings.ToLower(meta.Kind + " " + meta.Title + " " + meta.Description)
	for _, kind := range types {
		if strings.Contains(haystack, strings.ToLower(kind)) {
			return true
		}
	}
	return false
}

// DefaultFixturesPath looks for data/listings.json relative to the working directory.
func DefaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
