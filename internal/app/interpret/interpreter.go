package interpret

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"staysearch/internal/domain/search"
)

// Gazetteer recognizes known location aliases.
type Gazetteer interface {
	Known(phrase string) (display string, ok bool)
	MaxAliasWords() int
}

const (
	maxProperNounWords = 4
	largeBedrooms      = 5
	largeGuests        = 10
)

// Interpreter extracts structured criteria from a free-text query.
// Passes run in a fixed order and each claims the words it consumes, so a
// word read as a location is never reread as a count, price or amenity.
type Interpreter struct {
	Gazetteer Gazetteer
	Logger    *slog.Logger
}

func New(gazetteer Gazetteer, logger *slog.Logger) *Interpreter {
	return &Interpreter{Gazetteer: gazetteer, Logger: logger}
}

// Interpret never fails: unrecognized text simply leaves fields at their defaults.
func (in *Interpreter) Interpret(query string) search.Criteria {
	clean := Sanitize(query)
	criteria := search.DefaultCriteria(clean)
	s := &scan{tokens: tokenize(clean)}
	s.claimed = make([]bool, len(s.tokens))

	in.extractLocations(s, &criteria)
	extractBedrooms(s, &criteria)
	extractGuests(s, &criteria)
	extractPrice(s, &criteria)
	extractSize(s, &criteria)
	extractPropertyTypes(s, &criteria)
	extractAmenities(s, &criteria)
	extractRatingSort(s, &criteria)

	if criteria.SizeBand == search.SizeAny {
		if (criteria.BedroomsMin != nil && *criteria.BedroomsMin >= largeBedrooms) ||
			(criteria.GuestsMin != nil && *criteria.GuestsMin >= largeGuests) {
			criteria.SizeBand = search.SizeLarge
		}
	}

	criteria = criteria.Normalized()
	if in.Logger != nil {
		in.Logger.Debug("query interpreted",
			"locations", criteria.LocationPhrases,
			"bedrooms_min", deref(criteria.BedroomsMin),
			"guests_min", deref(criteria.GuestsMin),
			"price_band", criteria.PriceBand,
			"size_band", criteria.SizeBand,
			"types", criteria.PropertyTypes,
			"amenities", criteria.Amenities,
		)
	}
	return criteria
}

type scan struct {
	tokens  []token
	claimed []bool
}

func (s *scan) free(i, n int) bool {
	if i < 0 || n <= 0 || i+n > len(s.tokens) {
		return false
	}
	for k := i; k < i+n; k++ {
		if s.claimed[k] {
			return false
		}
	}
	return true
}

func (s *scan) claim(i, n int) {
	for k := i; k < i+n && k < len(s.claimed); k++ {
		s.claimed[k] = true
	}
}

func (s *scan) words(i, n int) string {
	parts := make([]string, 0, n)
	for k := i; k < i+n; k++ {
		parts = append(parts, s.tokens[k].lower)
	}
	return strings.Join(parts, " ")
}

func (s *scan) lower(i int) string {
	if i < 0 || i >= len(s.tokens) {
		return ""
	}
	return s.tokens[i].lower
}

// number reads a count at i, joining "twenty five" style pairs.
func (s *scan) number(i int) (value, width int, ok bool) {
	if !s.free(i, 1) {
		return 0, 0, false
	}
	v, ok := numberWord(s.lower(i))
	if !ok {
		return 0, 0, false
	}
	if _, tens := tensWords[s.lower(i)]; tens && s.free(i+1, 1) {
		if u, ok := unitWords[s.lower(i+1)]; ok && u > 0 && u < 10 {
			return v + u, 2, true
		}
	}
	return v, 1, true
}

// each walks unclaimed tokens left to right trying the longest phrase first.
func each[V any](s *scan, table phraseTable[V], fn func(v V, i, n int) bool) {
	for i := 0; i < len(s.tokens); i++ {
		for n := table.maxWords; n >= 1; n-- {
			if !s.free(i, n) {
				continue
			}
			v, ok := table.lookup(s.words(i, n))
			if !ok {
				continue
			}
			if fn(v, i, n) {
				s.claim(i, n)
				i += n - 1
				break
			}
		}
	}
}

var titleCaser = cases.Title(language.English)

func (in *Interpreter) extractLocations(s *scan, c *search.Criteria) {
	if in.Gazetteer != nil {
		maxWords := in.Gazetteer.MaxAliasWords()
		for i := 0; i < len(s.tokens); i++ {
			for n := maxWords; n >= 1; n-- {
				if !s.free(i, n) {
					continue
				}
				display, ok := in.Gazetteer.Known(s.words(i, n))
				if !ok {
					continue
				}
				c.LocationPhrases = append(c.LocationPhrases, display)
				s.claim(i, n)
				i += n - 1
				break
			}
		}
	}

	// capitalized words after a preposition ("in Boise", "near Lake Como")
	for i := 0; i < len(s.tokens); i++ {
		if !s.free(i, 1) {
			continue
		}
		if _, ok := locationPrepositions[s.lower(i)]; !ok {
			continue
		}
		j := i + 1
		if s.free(j, 1) && s.lower(j) == "the" {
			j++
		}
		start := j
		for j < len(s.tokens) && j-start < maxProperNounWords && s.free(j, 1) && capitalized(s.tokens[j].raw) && !isVocabulary(s.lower(j)) {
			j++
		}
		if j == start {
			continue
		}
		parts := make([]string, 0, j-start)
		for k := start; k < j; k++ {
			parts = append(parts, s.tokens[k].raw)
		}
		phrase := strings.Join(parts, " ")
		if strings.ToUpper(phrase) == phrase {
			phrase = titleCaser.String(phrase)
		}
		c.LocationPhrases = append(c.LocationPhrases, phrase)
		s.claim(i, j-i)
		i = j - 1
	}
}

func capitalized(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

func extractBedrooms(s *scan, c *search.Criteria) {
	for i := 0; i < len(s.tokens); i++ {
		if v, ok := compactBedrooms(s, i); ok {
			if c.BedroomsMin == nil {
				c.BedroomsMin = search.IntPtr(v)
			}
			s.claim(i, 1)
			continue
		}
		v, w, ok := s.number(i)
		if !ok || !s.free(i+w, 1) {
			continue
		}
		if _, unit := bedroomUnits[s.lower(i+w)]; !unit {
			continue
		}
		if c.BedroomsMin == nil {
			c.BedroomsMin = search.IntPtr(v)
		}
		s.claim(i, w+1)
		i += w
	}
}

var compactBedroomSuffixes = []string{"bedrooms", "bedroom", "bdrms", "bdrm", "beds", "bed", "br", "bd"}

// compactBedrooms reads "4br" or "3bed" written without a space.
func compactBedrooms(s *scan, i int) (int, bool) {
	if !s.free(i, 1) {
		return 0, false
	}
	word := s.lower(i)
	for _, suffix := range compactBedroomSuffixes {
		if !strings.HasSuffix(word, suffix) || len(word) == len(suffix) {
			continue
		}
		if v, ok := numberWord(strings.TrimSuffix(word, suffix)); ok {
			return v, true
		}
	}
	return 0, false
}

func extractGuests(s *scan, c *search.Criteria) {
	adults, children := 0, 0
	for i := 0; i < len(s.tokens); i++ {
		v, w, ok := s.number(i)
		if !ok || !s.free(i+w, 1) {
			continue
		}
		unit := s.lower(i + w)
		if _, ok := guestUnits[unit]; ok {
			adults = max(adults, v)
		} else if _, ok := childUnits[unit]; ok {
			children += v
		} else {
			continue
		}
		s.claim(i, w+1)
		i += w
	}
	if adults+children > 0 {
		c.GuestsMin = search.IntPtr(adults + children)
		return
	}

	each(s, guestTriggers, func(_ struct{}, i, n int) bool {
		if c.GuestsMin != nil {
			return false
		}
		j := i + n
		if s.lower(j) == "up" && s.lower(j+1) == "to" && s.free(j, 2) {
			j += 2
		}
		v, w, ok := s.number(j)
		if !ok {
			return false
		}
		c.GuestsMin = search.IntPtr(v)
		s.claim(j, w)
		if j > i+n {
			s.claim(i+n, j-i-n)
		}
		return true
	})
	if c.GuestsMin != nil {
		return
	}

	for i := 0; i < len(s.tokens); i++ {
		if !s.free(i, 1) || s.lower(i) != "for" {
			continue
		}
		v, w, ok := s.number(i + 1)
		if !ok {
			continue
		}
		if _, stop := stopAfterFor[s.lower(i+1+w)]; stop {
			continue
		}
		c.GuestsMin = search.IntPtr(v)
		s.claim(i, w+1)
		return
	}
}

// amount reads a price at i ("$300", "300 dollars", "1,200").
func (s *scan) amount(i int) (value float64, width int, currency bool, ok bool) {
	if !s.free(i, 1) {
		return 0, 0, false, false
	}
	v, cur, ok := parseAmount(s.lower(i))
	if !ok {
		return 0, 0, false, false
	}
	width = 1
	if _, word := currencyWords[s.lower(i+1)]; word && s.free(i+1, 1) {
		width, cur = 2, true
	}
	return v, width, cur, true
}

// plausiblePrice rejects bare small numbers that are more likely counts.
func plausiblePrice(v float64, currency bool) bool {
	return currency || v >= 20
}

func extractPrice(s *scan, c *search.Criteria) {
	// "between $100 and $200"
	for i := 0; i < len(s.tokens); i++ {
		if !s.free(i, 1) || s.lower(i) != "between" {
			continue
		}
		lo, w1, cur1, ok := s.amount(i + 1)
		if !ok || !s.free(i+1+w1, 1) || (s.lower(i+1+w1) != "and" && s.lower(i+1+w1) != "to") {
			continue
		}
		hi, w2, cur2, ok := s.amount(i + 2 + w1)
		if !ok || !plausiblePrice(hi, cur1 || cur2) {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		c.PriceMin, c.PriceMax = search.FloatPtr(lo), search.FloatPtr(hi)
		s.claim(i, 2+w1+w2)
		i += 1 + w1 + w2
	}

	each(s, priceCeilings, func(_ struct{}, i, n int) bool {
		v, w, cur, ok := s.amount(i + n)
		if !ok || c.PriceMax != nil || !plausiblePrice(v, cur) {
			return false
		}
		c.PriceMax = search.FloatPtr(v)
		s.claim(i+n, w)
		return true
	})
	each(s, priceFloors, func(_ struct{}, i, n int) bool {
		v, w, cur, ok := s.amount(i + n)
		if !ok || c.PriceMin != nil || !plausiblePrice(v, cur) {
			return false
		}
		c.PriceMin = search.FloatPtr(v)
		s.claim(i+n, w)
		return true
	})

	each(s, priceWords, func(hint priceHint, _, _ int) bool {
		if c.PriceBand == search.PriceAny {
			c.PriceBand = hint.band
		}
		if hint.sort != "" && c.SortPreference == search.SortRelevance {
			c.SortPreference = hint.sort
		}
		return true
	})
}

func extractSize(s *scan, c *search.Criteria) {
	each(s, sizeWords, func(band search.SizeBand, _, _ int) bool {
		if c.SizeBand == search.SizeAny {
			c.SizeBand = band
		}
		return true
	})
}

func extractPropertyTypes(s *scan, c *search.Criteria) {
	const maxTypeWords = 2
	for i := 0; i < len(s.tokens); i++ {
		for n := maxTypeWords; n >= 1; n-- {
			if !s.free(i, n) {
				continue
			}
			canonical, ok := search.LookupPropertyType(s.words(i, n))
			if !ok {
				continue
			}
			c.PropertyTypes = append(c.PropertyTypes, canonical)
			s.claim(i, n)
			i += n - 1
			break
		}
	}
}

func extractAmenities(s *scan, c *search.Criteria) {
	each(s, amenityWords, func(amenity string, _, _ int) bool {
		c.Amenities = append(c.Amenities, amenity)
		return true
	})
}

func extractRatingSort(s *scan, c *search.Criteria) {
	each(s, ratingSortWords, func(pref search.SortPreference, _, _ int) bool {
		if c.SortPreference == search.SortRelevance {
			c.SortPreference = pref
		}
		return true
	})
}

func deref(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
