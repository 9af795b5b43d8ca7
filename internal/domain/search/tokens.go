package search

import "strings"

var propertyTypeAliases = map[string]string{
	"house":        "house",
	"houses":       "house",
	"home":         "house",
	"homes":        "house",
	"entire_house": "house",
	"entire_home":  "house",
	"apartment":    "apartment",
	"apartments":   "apartment",
	"apt":          "apartment",
	"flat":         "apartment",
	"flats":        "apartment",
	"condo":        "condo",
	"condos":       "condo",
	"villa":        "villa",
	"villas":       "villa",
	"cabin":        "cabin",
	"cabins":       "cabin",
	"cottage":      "cottage",
	"cottages":     "cottage",
	"loft":         "loft",
	"lofts":        "loft",
	"studio":       "studio",
	"studios":      "studio",
	"townhouse":    "townhouse",
	"townhouses":   "townhouse",
	"townhome":     "townhouse",
	"townhomes":    "townhouse",
	"bungalow":     "bungalow",
	"bungalows":    "bungalow",
	"chalet":       "chalet",
	"chalets":      "chalet",
	"mansion":      "mansion",
	"mansions":     "mansion",
	"estate":       "mansion",
	"estates":      "mansion",
	"treehouse":    "treehouse",
	"farmhouse":    "farmhouse",
	"castle":       "castle",
	"guesthouse":   "guesthouse",
	"guest_house":  "guesthouse",
	"beach_house":  "house",
	"tree_house":   "treehouse",
	"entire_place": "house",
	"room":         "room",
	"private_room": "room",
	"rooms":        "room",
}

// CanonicalPropertyType maps a property type word onto its canonical token.
// Unknown types are returned normalized but otherwise unchanged.
func CanonicalPropertyType(raw string) string {
	token := NormalizeToken(raw)
	if canonical, ok := propertyTypeAliases[token]; ok {
		return canonical
	}
	return token
}

// LookupPropertyType reports whether the phrase names a known property type.
func LookupPropertyType(phrase string) (string, bool) {
	canonical, ok := propertyTypeAliases[NormalizeToken(phrase)]
	return canonical, ok
}

// NormalizeToken lowercases a filter token and joins inner words with underscores.
func NormalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(token)
	for strings.Contains(token, "__") {
		token = strings.ReplaceAll(token, "__", "_")
	}
	return strings.Trim(token, "_")
}

// NormalizeTokens normalizes, drops empties and dedupes while preserving order.
func NormalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = NormalizeToken(token)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
