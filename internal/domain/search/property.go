package search

import (
	"strings"

	"staysearch/internal/domain/shared/money"
)

// PlaceholderImage is used when a listing carries no usable image.
const PlaceholderImage = "https://placehold.co/600x400?text=No+Image"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	City        string       `json:"city"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Host struct {
	Name        string `json:"name"`
	IsSuperhost bool   `json:"isSuperhost"`
}

// Property is the canonical listing returned to clients.
type Property struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       money.Money `json:"price"`
	Rating      *float64    `json:"rating"`
	ReviewCount int         `json:"reviewCount"`
	Images      []string    `json:"images"`
	Location    Location    `json:"location"`
	Amenities   []string    `json:"amenities"`
	Host        Host        `json:"host"`
	Guests      int         `json:"guests"`
	Bedrooms    int         `json:"bedrooms"`
	Bathrooms   int         `json:"bathrooms"`
	URL         string      `json:"url"`
}

// HasAmenity reports whether the listing advertises the normalized amenity token.
func (p Property) HasAmenity(token string) bool {
	for _, a := range p.Amenities {
		if a == token {
			return true
		}
	}
	return false
}

// Mentions reports whether the title or description contains the word.
func (p Property) Mentions(word string) bool {
	word = strings.ToLower(strings.ReplaceAll(word, "_", " "))
	if word == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.Title), word) || strings.Contains(strings.ToLower(p.Description), word)
}

// Insights are the talking points shown next to a single property.
type Insights struct {
	Highlights []string `json:"aiHighlights"`
	BestFor    string   `json:"bestFor"`
	LocalTips  []string `json:"localTips"`
}

// Candidate is a normalized listing tagged with its provenance.
type Candidate struct {
	Property      Property
	Source        string
	Target        string
	LowConfidence bool
}

// CandidateSummary is the trimmed view of a candidate sent to the ranking collaborator.
type CandidateSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount"`
	Bedrooms    int      `json:"bedrooms"`
	Guests      int      `json:"guests"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Amenities   []string `json:"amenities,omitempty"`
}

// Summarize builds the collaborator view of a property.
func Summarize(p Property) CandidateSummary {
	return CandidateSummary{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.Major(),
		Currency:    p.Price.Currency,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Bedrooms:    p.Bedrooms,
		Guests:      p.Guests,
		City:        p.Location.City,
		Country:     p.Location.Country,
		Amenities:   append([]string(nil), p.Amenities...),
	}
}
