package interpret

import (
	"strings"

	"staysearch/internal/domain/search"
)

type priceHint struct {
	band search.PriceBand
	sort search.SortPreference
}

// phraseTable maps lowercase phrases (space separated words) to a value.
type phraseTable[V any] struct {
	entries  map[string]V
	maxWords int
}

func newPhraseTable[V any](entries map[string]V) phraseTable[V] {
	t := phraseTable[V]{entries: entries}
	for phrase := range entries {
		if n := len(strings.Fields(phrase)); n > t.maxWords {
			t.maxWords = n
		}
	}
	return t
}

func (t phraseTable[V]) lookup(phrase string) (V, bool) {
	v, ok := t.entries[phrase]
	return v, ok
}

var priceWords = newPhraseTable(map[string]priceHint{
	"budget":              {band: search.PriceBudget},
	"budget friendly":     {band: search.PriceBudget},
	"budget-friendly":     {band: search.PriceBudget},
	"low budget":          {band: search.PriceBudget},
	"cheap":               {band: search.PriceBudget},
	"cheaper":             {band: search.PriceBudget},
	"cheapest":            {band: search.PriceBudget, sort: search.SortPriceAsc},
	"affordable":          {band: search.PriceBudget},
	"inexpensive":         {band: search.PriceBudget},
	"economical":          {band: search.PriceBudget},
	"low cost":            {band: search.PriceBudget},
	"low-cost":            {band: search.PriceBudget},
	"low price":           {band: search.PriceBudget},
	"lowest price":        {band: search.PriceBudget, sort: search.SortPriceAsc},
	"least expensive":     {band: search.PriceBudget, sort: search.SortPriceAsc},
	"bargain":             {band: search.PriceBudget},
	"backpacker":          {band: search.PriceBudget},
	"frugal":              {band: search.PriceBudget},
	"mid-range":           {band: search.PriceMidrange},
	"midrange":            {band: search.PriceMidrange},
	"mid range":           {band: search.PriceMidrange},
	"mid-priced":          {band: search.PriceMidrange},
	"moderate":            {band: search.PriceMidrange},
	"moderately priced":   {band: search.PriceMidrange},
	"reasonable":          {band: search.PriceMidrange},
	"reasonably priced":   {band: search.PriceMidrange},
	"not too expensive":   {band: search.PriceMidrange},
	"luxury":              {band: search.PriceLuxury},
	"luxurious":           {band: search.PriceLuxury},
	"upscale":             {band: search.PriceLuxury},
	"high-end":            {band: search.PriceLuxury},
	"high end":            {band: search.PriceLuxury},
	"premium":             {band: search.PriceLuxury},
	"deluxe":              {band: search.PriceLuxury},
	"exclusive":           {band: search.PriceLuxury},
	"lavish":              {band: search.PriceLuxury},
	"opulent":             {band: search.PriceLuxury},
	"posh":                {band: search.PriceLuxury},
	"fancy":               {band: search.PriceLuxury},
	"5 star":              {band: search.PriceLuxury},
	"five star":           {band: search.PriceLuxury},
	"expensive":           {band: search.PriceLuxury},
	"most expensive":      {band: search.PriceLuxury, sort: search.SortPriceDesc},
	"priciest":            {band: search.PriceLuxury, sort: search.SortPriceDesc},
	"highest price":       {band: search.PriceLuxury, sort: search.SortPriceDesc},
	"splurge":             {band: search.PriceLuxury},
})

var sizeWords = newPhraseTable(map[string]search.SizeBand{
	"large":       search.SizeLarge,
	"big":         search.SizeLarge,
	"huge":        search.SizeLarge,
	"spacious":    search.SizeLarge,
	"massive":     search.SizeLarge,
	"roomy":       search.SizeLarge,
	"giant":       search.SizeLarge,
	"large group": search.SizeLarge,
	"big group":   search.SizeLarge,
	"small":       search.SizeSmall,
	"cozy":        search.SizeSmall,
	"cosy":        search.SizeSmall,
	"tiny":        search.SizeSmall,
	"compact":     search.SizeSmall,
	"intimate":    search.SizeSmall,
	"snug":        search.SizeSmall,
	"little":      search.SizeSmall,
})

var amenityWords = newPhraseTable(map[string]string{
	"wifi":             "wifi",
	"wi-fi":            "wifi",
	"wi fi":            "wifi",
	"internet":         "wifi",
	"pool":             "pool",
	"swimming pool":    "pool",
	"private pool":     "pool",
	"hot tub":          "hot_tub",
	"hottub":           "hot_tub",
	"jacuzzi":          "hot_tub",
	"spa":              "hot_tub",
	"kitchen":          "kitchen",
	"full kitchen":     "kitchen",
	"parking":          "parking",
	"free parking":     "parking",
	"garage":           "parking",
	"washer":           "washer",
	"washing machine":  "washer",
	"laundry":          "washer",
	"dryer":            "dryer",
	"air conditioning": "air_conditioning",
	"air-conditioning": "air_conditioning",
	"ac":               "air_conditioning",
	"a/c":              "air_conditioning",
	"aircon":           "air_conditioning",
	"tv":               "tv",
	"television":       "tv",
	"gym":              "gym",
	"fitness":          "gym",
	"pet friendly":     "pet_friendly",
	"pet-friendly":     "pet_friendly",
	"pets allowed":     "pet_friendly",
	"pets":             "pet_friendly",
	"dog friendly":     "pet_friendly",
	"dog-friendly":     "pet_friendly",
	"beachfront":       "beachfront",
	"beach front":      "beachfront",
	"beach access":     "beachfront",
	"on the beach":     "beachfront",
	"ocean view":       "ocean_view",
	"sea view":         "ocean_view",
	"fireplace":        "fireplace",
	"workspace":        "workspace",
	"desk":             "workspace",
	"balcony":          "balcony",
	"bbq":              "bbq",
	"grill":            "bbq",
	"sauna":            "sauna",
	"garden":           "garden",
	"ev charger":       "ev_charger",
	"elevator":         "elevator",
	"wheelchair":       "accessible",
	"accessible":       "accessible",
})

var ratingSortWords = newPhraseTable(map[string]search.SortPreference{
	"best rated":    search.SortRatingDesc,
	"best-rated":    search.SortRatingDesc,
	"top rated":     search.SortRatingDesc,
	"top-rated":     search.SortRatingDesc,
	"highest rated": search.SortRatingDesc,
	"highly rated":  search.SortRatingDesc,
	"highly-rated":  search.SortRatingDesc,
	"well rated":    search.SortRatingDesc,
	"best reviewed": search.SortRatingDesc,
	"well reviewed": search.SortRatingDesc,
	"best reviews":  search.SortRatingDesc,
	"great reviews": search.SortRatingDesc,
})

var bedroomUnits = map[string]struct{}{
	"bedroom": {}, "bedrooms": {}, "bed": {}, "beds": {}, "br": {}, "bd": {},
	"bdr": {}, "bdrm": {}, "bdrms": {}, "bedroomed": {}, "room": {}, "rooms": {},
}

var guestUnits = map[string]struct{}{
	"guest": {}, "guests": {}, "people": {}, "person": {}, "persons": {},
	"adult": {}, "adults": {}, "traveler": {}, "travelers": {}, "traveller": {},
	"travellers": {}, "pax": {}, "ppl": {}, "friends": {}, "visitors": {}, "members": {},
}

var childUnits = map[string]struct{}{
	"kid": {}, "kids": {}, "child": {}, "children": {},
}

var guestTriggers = newPhraseTable(map[string]struct{}{
	"sleeps":        {},
	"sleeping":      {},
	"sleep":         {},
	"accommodates":  {},
	"accommodate":   {},
	"accommodating": {},
	"fits":          {},
	"group of":      {},
	"party of":      {},
	"family of":     {},
	"team of":       {},
	"for up to":     {},
})

// stopAfterFor are words that make "for N" something other than a head count.
var stopAfterFor = map[string]struct{}{
	"night": {}, "nights": {}, "day": {}, "days": {}, "week": {}, "weeks": {},
	"month": {}, "months": {}, "year": {}, "years": {}, "dollars": {}, "usd": {},
	"bucks": {}, "euros": {}, "pounds": {}, "percent": {},
}

var currencyWords = map[string]struct{}{
	"dollars": {}, "dollar": {}, "usd": {}, "bucks": {}, "eur": {}, "euros": {},
	"gbp": {}, "pounds": {},
}

var priceCeilings = newPhraseTable(map[string]struct{}{
	"under":         {},
	"below":         {},
	"less than":     {},
	"max":           {},
	"maximum":       {},
	"at most":       {},
	"no more than":  {},
	"cheaper than":  {},
	"budget of":     {},
	"up to":         {},
	"within":        {},
})

var priceFloors = newPhraseTable(map[string]struct{}{
	"over":        {},
	"above":       {},
	"more than":   {},
	"at least":    {},
	"min":         {},
	"minimum":     {},
	"starting at": {},
})

var locationPrepositions = map[string]struct{}{
	"in": {}, "near": {}, "around": {}, "at": {}, "to": {}, "within": {}, "outside": {}, "visiting": {},
}

// isVocabulary reports whether a word belongs to a non-location lexicon, so the
// proper-noun heuristic does not swallow capitalized keywords such as "Luxury".
func isVocabulary(lower string) bool {
	if _, ok := numberWord(lower); ok {
		return true
	}
	if _, ok := priceWords.lookup(lower); ok {
		return true
	}
	if _, ok := sizeWords.lookup(lower); ok {
		return true
	}
	if _, ok := amenityWords.lookup(lower); ok {
		return true
	}
	if _, ok := search.LookupPropertyType(lower); ok {
		return true
	}
	if _, ok := bedroomUnits[lower]; ok {
		return true
	}
	if _, ok := guestUnits[lower]; ok {
		return true
	}
	switch lower {
	case "with", "and", "for", "or", "the", "a", "an", "near", "in", "on", "by", "under", "over":
		return true
	}
	return false
}
