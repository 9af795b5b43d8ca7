package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
)

var austin = search.LocationTarget{ID: "austin-us", DisplayName: "Austin, United States", City: "Austin", Country: "United States"}

func TestParsePriceShapes(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  money.Money
		ok    bool
	}{
		{"dollar string", "$150", money.Must(15000, "USD"), true},
		{"decimal string", "150.50", money.Must(15050, "USD"), true},
		{"object", map[string]any{"price": 200.0}, money.Must(20000, "USD"), true},
		{"object with currency", map[string]any{"amount": json.Number("99"), "currency": "EUR"}, money.Must(9900, "EUR"), true},
		{"euro symbol", "€1,250 / night", money.Must(125000, "EUR"), true},
		{"iso code", "89 GBP", money.Must(8900, "GBP"), true},
		{"number", 75.0, money.Must(7500, "USD"), true},
		{"real symbol", "R$ 450", money.Must(45000, "BRL"), true},
		{"mixed symbols", "£120 (¥20000)", money.Must(12000, "GBP"), true},
		{"overflowing string", "$99999999999999999999999", money.Money{}, false},
		{"overflowing number", 1e300, money.Money{}, false},
		{"invalid", "invalid", money.Money{}, false},
		{"nil", nil, money.Money{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parsePrice(tc.input, "")
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	r, reviews, has := parseRating("4.81 (53)")
	require.NotNil(t, r)
	assert.Equal(t, 4.81, *r)
	assert.True(t, has)
	assert.Equal(t, 53, reviews)

	r, _, _ = parseRating("New")
	assert.Nil(t, r)

	r, _, has = parseRating("4.5")
	require.NotNil(t, r)
	assert.Equal(t, 4.5, *r)
	assert.False(t, has)

	r, _, _ = parseRating(5.0)
	require.NotNil(t, r)
	assert.Equal(t, 5.0, *r)

	r, _, _ = parseRating(9.7)
	assert.Nil(t, r, "ratings above five are rejected")
}

func TestParseImages(t *testing.T) {
	assert.Equal(t, []string{"https://img.example.com/a.jpg"}, parseImages("https://img.example.com/a.jpg"))
	assert.Equal(t, []string{"https://img.example.com/b.jpg"}, parseImages([]any{map[string]any{"picture": "https://img.example.com/b.jpg"}}))
	assert.Equal(t, []string{"https://img.example.com/c.jpg"}, parseImages(map[string]any{"url": "//img.example.com/c.jpg"}))
	assert.Empty(t, parseImages([]any{"not a url", "javascript:alert(1)"}))
	assert.Equal(t, []string{"https://x.io/1.jpg"}, parseImages([]any{"https://x.io/1.jpg", "https://x.io/1.jpg"}))
}

func TestNormalizeAirbnbShape(t *testing.T) {
	raw := search.RawListing{
		Source: "rapidapi",
		Shape:  search.ShapeAirbnbAPI,
		Fields: map[string]any{
			"listing": map[string]any{
				"id":                 json.Number("53210987654321987"),
				"name":               "Hill Country Ranch",
				"avgRatingLocalized": "4.92 (118)",
				"bedrooms":           json.Number("11"),
				"personCapacity":     json.Number("16"),
				"bathrooms":          7.5,
				"city":               "Austin",
				"contextualPictures": []any{map[string]any{"picture": "https://a0.muscache.com/1.jpg"}},
				"isSuperhost":        true,
				"user":               map[string]any{"firstName": "Dana"},
				"coordinate":         map[string]any{"latitude": 30.27, "longitude": -97.74},
			},
			"pricingQuote": map[string]any{
				"structuredStayDisplayPrice": map[string]any{"primaryLine": map[string]any{"price": "$1,450"}},
			},
		},
	}

	c, ok := Normalizer{}.Normalize(raw, austin)

	require.True(t, ok)
	assert.False(t, c.LowConfidence)
	p := c.Property
	assert.Equal(t, "53210987654321987", p.ID)
	assert.Equal(t, money.Must(145000, "USD"), p.Price)
	assert.Equal(t, 4.92, *p.Rating)
	assert.Equal(t, 118, p.ReviewCount)
	assert.Equal(t, 11, p.Bedrooms)
	assert.Equal(t, 16, p.Guests)
	assert.Equal(t, 8, p.Bathrooms)
	assert.Equal(t, "United States", p.Location.Country, "missing country falls back to the target")
	assert.Equal(t, &search.Coordinates{Lat: 30.27, Lng: -97.74}, p.Location.Coordinates)
	assert.Equal(t, search.Host{Name: "Dana", IsSuperhost: true}, p.Host)
	assert.Equal(t, "https://www.airbnb.com/rooms/53210987654321987", p.URL)
	assert.Equal(t, []string{"https://a0.muscache.com/1.jpg"}, p.Images)
	assert.Equal(t, "austin-us", c.Target)
}

func TestNormalizeDefaultsAndDropRule(t *testing.T) {
	n := Normalizer{}

	c, ok := n.Normalize(search.RawListing{Source: "fixtures", Shape: search.ShapeCatalog, Fields: map[string]any{
		"title": "Loft", "price": "call us",
	}}, austin)
	require.True(t, ok)
	assert.True(t, c.LowConfidence)
	assert.Equal(t, money.Zero(), c.Property.Price)
	assert.Equal(t, []string{search.PlaceholderImage}, c.Property.Images)
	assert.NotEmpty(t, c.Property.ID)
	assert.Nil(t, c.Property.Rating)

	again, _ := n.Normalize(search.RawListing{Source: "fixtures", Shape: search.ShapeCatalog, Fields: map[string]any{
		"title": "Loft", "price": "call us",
	}}, austin)
	assert.Equal(t, c.Property.ID, again.Property.ID, "synthetic ids are deterministic")

	huge, ok := n.Normalize(search.RawListing{Source: "fixtures", Shape: search.ShapeCatalog, Fields: map[string]any{
		"title": "Palace", "price": "$99999999999999999999999",
	}}, austin)
	require.True(t, ok)
	assert.True(t, huge.LowConfidence)
	assert.Equal(t, money.Zero(), huge.Property.Price)

	_, ok = n.Normalize(search.RawListing{Source: "fixtures", Shape: search.ShapeCatalog, Fields: map[string]any{"price": 100}}, austin)
	assert.False(t, ok)

	batch := n.NormalizeBatch([]search.RawListing{
		{Shape: search.ShapeCatalog, Fields: map[string]any{"id": "1"}},
		{Shape: search.ShapeCatalog, Fields: map[string]any{"bedrooms": 2}},
		{Shape: search.ShapeCatalog},
	}, austin)
	assert.Len(t, batch, 1)
}

func TestEncodeRoundTrip(t *testing.T) {
	rating := 4.7
	p := search.Property{
		ID:          "fx-1",
		Title:       "Lakeside Villa",
		Description: "Quiet villa with a dock",
		Price:       money.Must(32999, "EUR"),
		Rating:      &rating,
		ReviewCount: 41,
		Images:      []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
		Location:    search.Location{City: "Austin", Country: "United States", Coordinates: &search.Coordinates{Lat: 30.2, Lng: -97.7}},
		Amenities:   []string{"pool", "wifi"},
		Host:        search.Host{Name: "Ana", IsSuperhost: true},
		Guests:      12,
		Bedrooms:    6,
		Bathrooms:   4,
		URL:         "https://example.com/fx-1",
	}

	c, ok := Normalizer{}.Normalize(Encode(p, "fixtures"), austin)

	require.True(t, ok)
	assert.Equal(t, p, c.Property)
	assert.False(t, c.LowConfidence)
}
