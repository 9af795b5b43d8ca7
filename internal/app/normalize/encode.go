package normalize

import "staysearch/internal/domain/search"

// Encode renders a canonical property back into a catalog-shaped raw listing.
// Normalizing the result yields an equal property.
func Encode(p search.Property, source string) search.RawListing {
	location := map[string]any{
		"city":    p.Location.City,
		"country": p.Location.Country,
	}
	if p.Location.Coordinates != nil {
		location["coordinates"] = map[string]any{
			"lat": p.Location.Coordinates.Lat,
			"lng": p.Location.Coordinates.Lng,
		}
	}
	fields := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"price": map[string]any{
			"amount":   p.Price.Major(),
			"currency": p.Price.Currency,
		},
		"reviewCount": p.ReviewCount,
		"images":      toAnySlice(p.Images),
		"location":    location,
		"amenities":   toAnySlice(p.Amenities),
		"host": map[string]any{
			"name":        p.Host.Name,
			"isSuperhost": p.Host.IsSuperhost,
		},
		"guests":    p.Guests,
		"bedrooms":  p.Bedrooms,
		"bathrooms": p.Bathrooms,
		"url":       p.URL,
	}
	if p.Rating != nil {
		fields["rating"] = *p.Rating
	}
	return search.RawListing{Source: source, Shape: search.ShapeCatalog, Fields: fields}
}

func toAnySlice(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}
