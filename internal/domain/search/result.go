package search

// ResultSize is the number of properties returned per search.
const ResultSize = 5

// LocationTarget is one concrete place to query upstream sources for.
type LocationTarget struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	City        string `json:"city"`
	Country     string `json:"country,omitempty"`
}

// Shape tells the normalizer which field layout a raw listing uses.
type Shape string

const (
	ShapeCatalog   Shape = "catalog"
	ShapeAirbnbAPI Shape = "airbnb_api"
)

// RawListing is an upstream record before normalization.
type RawListing struct {
	Source string         `json:"source"`
	Shape  Shape          `json:"shape"`
	Fields map[string]any `json:"fields"`
}

// RankingPath records which ranking strategy produced the final order.
type RankingPath string

const (
	RankingCollaborator RankingPath = "collaborator"
	RankingFallback     RankingPath = "fallback"
)

// Result is the outcome of a full search run.
type Result struct {
	Properties       []Property       `json:"properties"`
	TotalCandidates  int              `json:"totalCandidates"`
	PartialFailures  []Failure        `json:"partialFailures"`
	ProcessingTimeMs float64          `json:"processingTime"`
	Locations        []LocationTarget `json:"locations"`
	Criteria         Criteria         `json:"criteria"`
	RankingPath      RankingPath      `json:"rankingPath"`
}
