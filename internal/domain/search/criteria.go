package search

import (
	"fmt"
	"sort"
	"strings"
)

// PriceBand is a coarse price preference extracted from the query.
type PriceBand string

const (
	PriceAny      PriceBand = "any"
	PriceBudget   PriceBand = "budget"
	PriceMidrange PriceBand = "midrange"
	PriceLuxury   PriceBand = "luxury"
)

// SizeBand is a coarse size preference.
type SizeBand string

const (
	SizeAny   SizeBand = "any"
	SizeSmall SizeBand = "small"
	SizeLarge SizeBand = "large"
)

// SortPreference tells the fallback ranking which order the user asked for.
type SortPreference string

const (
	SortRelevance  SortPreference = "relevance"
	SortPriceAsc   SortPreference = "price_asc"
	SortPriceDesc  SortPreference = "price_desc"
	SortRatingDesc SortPreference = "rating_desc"
)

const (
	// MaxQueryRunes bounds the sanitized query kept in criteria.
	MaxQueryRunes = 1000
	// MaxFilterTokens bounds each client-supplied filter list.
	MaxFilterTokens = 20
)

// Filters are the optional structured hints a client can send next to the query.
type Filters struct {
	Amenities     []string `json:"amenities,omitempty"`
	PropertyTypes []string `json:"propertyTypes,omitempty"`
}

// Criteria is the structured interpretation of a free-text query.
type Criteria struct {
	RawQuery        string         `json:"rawQuery"`
	LocationPhrases []string       `json:"locationPhrases"`
	BedroomsMin     *int           `json:"bedroomsMin,omitempty"`
	GuestsMin       *int           `json:"guestsMin,omitempty"`
	PriceMin        *float64       `json:"priceMin,omitempty"`
	PriceMax        *float64       `json:"priceMax,omitempty"`
	PriceBand       PriceBand      `json:"priceBand"`
	SizeBand        SizeBand       `json:"sizeBand"`
	PropertyTypes   []string       `json:"propertyTypes"`
	Amenities       []string       `json:"amenities"`
	SortPreference  SortPreference `json:"sortPreference"`
}

// DefaultCriteria returns criteria with every optional field at its neutral value.
func DefaultCriteria(raw string) Criteria {
	return Criteria{
		RawQuery:        raw,
		LocationPhrases: []string{},
		PriceBand:       PriceAny,
		SizeBand:        SizeAny,
		PropertyTypes:   []string{},
		Amenities:       []string{},
		SortPreference:  SortRelevance,
	}
}

// Normalized returns a sanitized copy with deduped tokens and consistent bounds.
func (c Criteria) Normalized() Criteria {
	normalized := c
	if runes := []rune(normalized.RawQuery); len(runes) > MaxQueryRunes {
		normalized.RawQuery = string(runes[:MaxQueryRunes])
	}
	normalized.LocationPhrases = dedupePhrases(normalized.LocationPhrases)
	normalized.Amenities = nonNil(NormalizeTokens(normalized.Amenities))
	types := make([]string, 0, len(normalized.PropertyTypes))
	for _, t := range normalized.PropertyTypes {
		types = append(types, CanonicalPropertyType(t))
	}
	normalized.PropertyTypes = nonNil(NormalizeTokens(types))
	if normalized.BedroomsMin != nil && *normalized.BedroomsMin < 0 {
		normalized.BedroomsMin = nil
	}
	if normalized.GuestsMin != nil && *normalized.GuestsMin < 0 {
		normalized.GuestsMin = nil
	}
	if normalized.PriceMin != nil && *normalized.PriceMin < 0 {
		normalized.PriceMin = nil
	}
	if normalized.PriceMin != nil && normalized.PriceMax != nil && *normalized.PriceMax < *normalized.PriceMin {
		normalized.PriceMax = nil
	}
	if normalized.PriceBand == "" {
		normalized.PriceBand = PriceAny
	}
	if normalized.SizeBand == "" {
		normalized.SizeBand = SizeAny
	}
	if normalized.SortPreference == "" {
		normalized.SortPreference = SortRelevance
	}
	return normalized
}

// WithFilters merges client filters into the interpreted criteria.
func (c Criteria) WithFilters(f Filters) Criteria {
	merged := c
	merged.Amenities = append(append([]string(nil), c.Amenities...), f.Amenities...)
	merged.PropertyTypes = append(append([]string(nil), c.PropertyTypes...), f.PropertyTypes...)
	return merged.Normalized()
}

// SourceCriteria is the subset of criteria forwarded to upstream sources.
type SourceCriteria struct {
	GuestsMin     int
	BedroomsMin   int
	PriceMin      float64
	PriceMax      float64
	PriceBand     PriceBand
	PropertyTypes []string
	Amenities     []string
}

// SourceCriteria projects the criteria onto what sources can filter by.
func (c Criteria) SourceCriteria() SourceCriteria {
	sc := SourceCriteria{
		PriceBand:     c.PriceBand,
		PropertyTypes: append([]string(nil), c.PropertyTypes...),
		Amenities:     append([]string(nil), c.Amenities...),
	}
	if c.GuestsMin != nil {
		sc.GuestsMin = *c.GuestsMin
	}
	if c.BedroomsMin != nil {
		sc.BedroomsMin = *c.BedroomsMin
	}
	if c.PriceMin != nil {
		sc.PriceMin = *c.PriceMin
	}
	if c.PriceMax != nil {
		sc.PriceMax = *c.PriceMax
	}
	return sc
}

// CacheKey renders a stable identifier for the forwarded filters.
func (s SourceCriteria) CacheKey() string {
	types := append([]string(nil), s.PropertyTypes...)
	sort.Strings(types)
	amenities := append([]string(nil), s.Amenities...)
	sort.Strings(amenities)
	return fmt.Sprintf("g%d:b%d:p%.0f-%.0f:%s:t=%s:a=%s",
		s.GuestsMin, s.BedroomsMin, s.PriceMin, s.PriceMax, s.PriceBand,
		strings.Join(types, ","), strings.Join(amenities, ","))
}

func dedupePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	seen := make(map[string]struct{}, len(phrases))
	for _, phrase := range phrases {
		phrase = strings.Join(strings.Fields(phrase), " ")
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phrase)
	}
	return out
}

func nonNil(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// IntPtr is a small helper for optional integer criteria.
func IntPtr(v int) *int { return &v }

// FloatPtr is a small helper for optional float criteria.
func FloatPtr(v float64) *float64 { return &v }
