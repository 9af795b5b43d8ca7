package ranking

import (
	"sort"

	"staysearch/internal/domain/search"
)

const (
	weightBedrooms = 0.35
	weightGuests   = 0.25
	weightRating   = 0.20
	weightOverlap  = 0.10
	weightPrice    = 0.10
)

// FallbackOrder sorts properties deterministically for the given criteria.
// The input slice is left untouched.
func FallbackOrder(props []search.Property, criteria search.Criteria) []search.Property {
	out := append([]search.Property(nil), props...)
	switch criteria.SortPreference {
	case search.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Price.Amount != out[j].Price.Amount {
				return out[i].Price.Amount < out[j].Price.Amount
			}
			return byRatingThenID(out[i], out[j])
		})
	case search.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Price.Amount != out[j].Price.Amount {
				return out[i].Price.Amount > out[j].Price.Amount
			}
			return byRatingThenID(out[i], out[j])
		})
	case search.SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := ratingOf(out[i]), ratingOf(out[j])
			if ri != rj {
				return ri > rj
			}
			if out[i].ReviewCount != out[j].ReviewCount {
				return out[i].ReviewCount > out[j].ReviewCount
			}
			return out[i].ID < out[j].ID
		})
	default:
		scores := make(map[string]float64, len(out))
		pct := pricePercentiles(out)
		for _, p := range out {
			scores[p.ID] = Relevance(p, criteria, pct[p.ID])
		}
		sort.SliceStable(out, func(i, j int) bool {
			si, sj := scores[out[i].ID], scores[out[j].ID]
			if si != sj {
				return si > sj
			}
			return byRatingThenID(out[i], out[j])
		})
	}
	return out
}

// Relevance is the weighted match of one property against the criteria.
// pricePercentile places the property's price within the pool, 0 cheapest and 1 priciest.
func Relevance(p search.Property, criteria search.Criteria, pricePercentile float64) float64 {
	score := weightBedrooms*countMatch(p.Bedrooms, criteria.BedroomsMin) +
		weightGuests*countMatch(p.Guests, criteria.GuestsMin) +
		weightOverlap*overlap(p, criteria) +
		weightPrice*priceFit(p, criteria, pricePercentile)
	if p.Rating != nil {
		score += weightRating * (*p.Rating / 5)
	}
	return score
}

func countMatch(have int, want *int) float64 {
	if want == nil || *want <= 0 {
		return 1
	}
	if have >= *want {
		return 1
	}
	return float64(have) / float64(*want)
}

func overlap(p search.Property, criteria search.Criteria) float64 {
	wanted := len(criteria.Amenities) + len(criteria.PropertyTypes)
	if wanted == 0 {
		return 1
	}
	hits := 0
	for _, a := range criteria.Amenities {
		if p.HasAmenity(a) || p.Mentions(a) {
			hits++
		}
	}
	for _, t := range criteria.PropertyTypes {
		if p.Mentions(t) {
			hits++
		}
	}
	return float64(hits) / float64(wanted)
}

func priceFit(p search.Property, criteria search.Criteria, pct float64) float64 {
	major := p.Price.Major()
	if criteria.PriceMax != nil && major > *criteria.PriceMax {
		return 0
	}
	if criteria.PriceMin != nil && major < *criteria.PriceMin {
		return 0
	}
	switch criteria.PriceBand {
	case search.PriceBudget:
		return 1 - pct
	case search.PriceLuxury:
		return pct
	case search.PriceMidrange:
		d := pct - 0.5
		if d < 0 {
			d = -d
		}
		return 1 - 2*d
	default:
		return 1
	}
}

// pricePercentiles maps each id to the share of the pool priced strictly below it.
func pricePercentiles(props []search.Property) map[string]float64 {
	out := make(map[string]float64, len(props))
	if len(props) < 2 {
		for _, p := range props {
			out[p.ID] = 0.5
		}
		return out
	}
	amounts := make([]int64, len(props))
	for i, p := range props {
		amounts[i] = p.Price.Amount
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })
	for _, p := range props {
		below := sort.Search(len(amounts), func(i int) bool { return amounts[i] >= p.Price.Amount })
		out[p.ID] = float64(below) / float64(len(amounts)-1)
	}
	return out
}

func ratingOf(p search.Property) float64 {
	if p.Rating == nil {
		return -1
	}
	return *p.Rating
}

func byRatingThenID(a, b search.Property) bool {
	ra, rb := ratingOf(a), ratingOf(b)
	if ra != rb {
		return ra > rb
	}
	return a.ID < b.ID
}
