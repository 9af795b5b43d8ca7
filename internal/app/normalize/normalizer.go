package normalize

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
)

// fieldPaths lists, per canonical field, the dotted paths to try in order.
type fieldPaths struct {
	id, title, description      []string
	price, currency             []string
	rating, reviewCount         []string
	images                      []string
	city, country, lat, lng     []string
	amenities                   []string
	hostName, superhost         []string
	guests, bedrooms, bathrooms []string
	url                         []string
	urlPrefix                   string
}

var shapes = map[search.Shape]fieldPaths{
	search.ShapeCatalog: {
		id:          []string{"id", "_id", "listing_id", "listingId"},
		title:       []string{"title", "name"},
		description: []string{"description", "summary"},
		price:       []string{"price", "nightly_rate", "nightlyRate"},
		currency:    []string{"currency", "price.currency"},
		rating:      []string{"rating", "avgRating", "review_scores.rating"},
		reviewCount: []string{"reviewCount", "reviews_count", "reviewsCount", "number_of_reviews"},
		images:      []string{"images", "photos", "pictures", "thumbnail_url", "image"},
		city:        []string{"location.city", "city", "address.city"},
		country:     []string{"location.country", "country", "address.country"},
		lat:         []string{"location.coordinates.lat", "coordinates.lat", "address.lat", "lat"},
		lng:         []string{"location.coordinates.lng", "coordinates.lng", "address.lon", "address.lng", "lng", "lon"},
		amenities:   []string{"amenities"},
		hostName:    []string{"host.name", "host_name", "host"},
		superhost:   []string{"host.isSuperhost", "host.is_superhost", "is_superhost"},
		guests:      []string{"guests", "guests_limit", "accommodates", "personCapacity"},
		bedrooms:    []string{"bedrooms"},
		bathrooms:   []string{"bathrooms"},
		url:         []string{"url", "listing_url"},
	},
	search.ShapeAirbnbAPI: {
		id:          []string{"listing.id", "id"},
		title:       []string{"listing.name", "listing.title", "name"},
		description: []string{"listing.description", "listing.roomTypeCategory", "listing.roomType"},
		price:       []string{"pricingQuote.rate.amount", "pricingQuote.structuredStayDisplayPrice.primaryLine.price", "pricingQuote.price", "price"},
		currency:    []string{"pricingQuote.rate.currency", "pricingQuote.currency", "currency"},
		rating:      []string{"listing.avgRatingLocalized", "listing.avgRating", "avgRating"},
		reviewCount: []string{"listing.reviewsCount", "reviewsCount"},
		images:      []string{"listing.contextualPictures", "listing.pictureUrls", "listing.pictureUrl", "images"},
		city:        []string{"listing.city", "listing.localizedCityName"},
		country:     []string{"listing.country", "listing.localizedCountryName"},
		lat:         []string{"listing.coordinate.latitude", "listing.lat"},
		lng:         []string{"listing.coordinate.longitude", "listing.lng"},
		amenities:   []string{"listing.amenities", "listing.previewAmenityNames"},
		hostName:    []string{"listing.user.firstName", "listing.primaryHost.firstName"},
		superhost:   []string{"listing.isSuperhost", "listing.user.isSuperhost", "listing.primaryHost.isSuperhost"},
		guests:      []string{"listing.personCapacity", "listing.guests"},
		bedrooms:    []string{"listing.bedrooms"},
		bathrooms:   []string{"listing.bathrooms"},
		url:         []string{"listing.url"},
		urlPrefix:   "https://www.airbnb.com/rooms/",
	},
}

// Normalizer maps raw upstream records onto canonical properties.
type Normalizer struct {
	Placeholder string
	Logger      *slog.Logger
}

// Normalize returns ok=false only when the record has neither an id nor a title.
// Every other missing field falls back to a documented default.
func (n Normalizer) Normalize(raw search.RawListing, origin search.LocationTarget) (search.Candidate, bool) {
	paths, known := shapes[raw.Shape]
	if !known {
		paths = shapes[search.ShapeCatalog]
	}
	fields := raw.Fields
	if fields == nil {
		return search.Candidate{}, false
	}

	id := firstString(fields, paths.id)
	title := firstString(fields, paths.title)
	if id == "" && title == "" {
		return search.Candidate{}, false
	}

	p := search.Property{
		ID:          id,
		Title:       title,
		Description: firstString(fields, paths.description),
		Guests:      firstInt(fields, paths.guests),
		Bedrooms:    firstInt(fields, paths.bedrooms),
		Bathrooms:   firstInt(fields, paths.bathrooms),
		URL:         firstString(fields, paths.url),
		Host: search.Host{
			Name:        firstString(fields, paths.hostName),
			IsSuperhost: firstBool(fields, paths.superhost),
		},
	}
	p.Location = search.Location{
		City:    firstString(fields, paths.city),
		Country: firstString(fields, paths.country),
	}
	if p.Location.City == "" {
		p.Location.City = origin.City
	}
	if p.Location.Country == "" {
		p.Location.Country = origin.Country
	}
	if lat, ok := firstFloat(fields, paths.lat); ok {
		if lng, ok := firstFloat(fields, paths.lng); ok {
			p.Location.Coordinates = &search.Coordinates{Lat: lat, Lng: lng}
		}
	}
	if p.Title == "" {
		p.Title = defaultTitle(p.Location)
	}
	if p.ID == "" {
		p.ID = syntheticID(raw.Source, p.Title, p.Location.City)
	}
	if p.URL == "" && paths.urlPrefix != "" {
		p.URL = paths.urlPrefix + p.ID
	}

	lowConfidence := false
	currency := firstString(fields, paths.currency)
	priceValue, _ := first(fields, paths.price)
	if price, ok := parsePrice(priceValue, currency); ok {
		p.Price = price
	} else {
		p.Price = money.Zero()
		lowConfidence = true
	}

	if v, ok := first(fields, paths.rating); ok {
		rating, reviews, hasReviews := parseRating(v)
		p.Rating = rating
		if hasReviews {
			p.ReviewCount = reviews
		}
	}
	if p.ReviewCount == 0 {
		p.ReviewCount = firstInt(fields, paths.reviewCount)
	}

	for _, path := range paths.images {
		if v, ok := lookup(fields, path); ok {
			if images := parseImages(v); len(images) > 0 {
				p.Images = images
				break
			}
		}
	}
	if len(p.Images) == 0 {
		p.Images = []string{n.placeholder()}
	}

	if v, ok := first(fields, paths.amenities); ok {
		p.Amenities = search.NormalizeTokens(stringList(v))
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}

	return search.Candidate{Property: p, Source: raw.Source, Target: origin.ID, LowConfidence: lowConfidence}, true
}

// NormalizeBatch normalizes every record, dropping the unusable ones.
func (n Normalizer) NormalizeBatch(raws []search.RawListing, origin search.LocationTarget) []search.Candidate {
	out := make([]search.Candidate, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		c, ok := n.Normalize(raw, origin)
		if !ok {
			dropped++
			continue
		}
		out = append(out, c)
	}
	if dropped > 0 && n.Logger != nil {
		n.Logger.Debug("dropped unusable listings", "target", origin.ID, "count", dropped)
	}
	return out
}

func (n Normalizer) placeholder() string {
	if n.Placeholder != "" {
		return n.Placeholder
	}
	return search.PlaceholderImage
}

func defaultTitle(loc search.Location) string {
	if loc.City != "" {
		return "Stay in " + loc.City
	}
	return "Untitled listing"
}

// syntheticID is deterministic so the same record dedupes across sources and runs.
func syntheticID(source, title, city string) string {
	key := strings.ToLower(strings.Join([]string{source, title, city}, "|"))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
