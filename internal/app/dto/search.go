package dto

import (
	"time"

	domain "staysearch/internal/domain/search"
)

// SearchResults is the payload of a successful search.
type SearchResults struct {
	Properties      []PropertyCard          `json:"properties"`
	Total           int                     `json:"total"`
	TotalCandidates int                     `json:"totalCandidates"`
	Query           string                  `json:"query"`
	ProcessingTime  float64                 `json:"processingTime"`
	Locations       []domain.LocationTarget `json:"locations"`
	Criteria        domain.Criteria         `json:"criteria"`
	PartialFailures []domain.Failure        `json:"partialFailures"`
	RankingPath     string                  `json:"rankingPath"`
	Summary         string                  `json:"summary"`
}

// PropertyCard is a property as rendered to clients.
type PropertyCard struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       Price           `json:"price"`
	Rating      *float64        `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
	Images      []string        `json:"images"`
	Location    domain.Location `json:"location"`
	Amenities   []string        `json:"amenities"`
	Host        domain.Host     `json:"host"`
	Guests      int             `json:"guests"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	URL         string          `json:"url"`
}

// PropertyDetails is a single property with its insights.
type PropertyDetails struct {
	PropertyCard
	Highlights []string `json:"aiHighlights"`
	BestFor    string   `json:"bestFor"`
	LocalTips  []string `json:"localTips"`
	AIEnhanced bool     `json:"aiEnhanced"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Suggestions is the payload of the suggestion endpoint.
type Suggestions struct {
	Suggestions []string  `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
}

// MapSearch converts an engine result into its wire form.
func MapSearch(result domain.Result, query string) SearchResults {
	cards := make([]PropertyCard, 0, len(result.Properties))
	for _, p := range result.Properties {
		cards = append(cards, MapPropertyCard(p))
	}
	failures := result.PartialFailures
	if failures == nil {
		failures = []domain.Failure{}
	}
	locations := result.Locations
	if locations == nil {
		locations = []domain.LocationTarget{}
	}
	return SearchResults{
		Properties:      cards,
		Total:           len(cards),
		TotalCandidates: result.TotalCandidates,
		Query:           query,
		ProcessingTime:  result.ProcessingTimeMs,
		Locations:       locations,
		Criteria:        result.Criteria,
		PartialFailures: failures,
		RankingPath:     string(result.RankingPath),
	}
}

func MapPropertyCard(p domain.Property) PropertyCard {
	return PropertyCard{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       Price{Amount: p.Price.Major(), Currency: p.Price.Currency},
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Images:      append([]string{}, p.Images...),
		Location:    p.Location,
		Amenities:   append([]string{}, p.Amenities...),
		Host:        p.Host,
		Guests:      p.Guests,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		URL:         p.URL,
	}
}

func MapPropertyDetails(p domain.Property, insights domain.Insights, enhanced bool) PropertyDetails {
	return PropertyDetails{
		PropertyCard: MapPropertyCard(p),
		Highlights:   append([]string{}, insights.Highlights...),
		BestFor:      insights.BestFor,
		LocalTips:    append([]string{}, insights.LocalTips...),
		AIEnhanced:   enhanced,
	}
}
