package interpret

import (
	"strconv"
	"strings"
	"unicode"
)

type token struct {
	raw   string
	lower string
}

// tokenize splits a sanitized query into words, keeping currency amounts
// ("$300", "1,200") and joined words ("pet-friendly", "a/c") intact.
func tokenize(s string) []token {
	runes := []rune(s)
	var out []token
	for i := 0; i < len(runes); {
		if !isWordStart(runes[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) {
			c := runes[j]
			if isWordRune(c) {
				j++
				continue
			}
			if j+1 < len(runes) && joins(c, runes[j-1], runes[j+1]) {
				j += 2
				continue
			}
			break
		}
		out = append(out, splitNumericCompound(string(runes[i:j]))...)
		i = j
	}
	return out
}

func isWordStart(r rune) bool {
	return isWordRune(r) || unicode.Is(unicode.Sc, r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func joins(sep, prev, next rune) bool {
	switch sep {
	case '.', ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	case '-', '/', '\'', '’':
		return isWordRune(prev) && isWordRune(next)
	default:
		return false
	}
}

// splitNumericCompound breaks "8-bedroom" or "twenty-five" into separate words so
// number patterns see them; other hyphenated words stay whole.
func splitNumericCompound(word string) []token {
	parts := strings.Split(word, "-")
	if len(parts) > 1 {
		if _, ok := numberWord(strings.ToLower(parts[0])); ok {
			out := make([]token, 0, len(parts))
			for _, p := range parts {
				if p != "" {
					out = append(out, token{raw: p, lower: strings.ToLower(p)})
				}
			}
			return out
		}
	}
	return []token{{raw: word, lower: strings.ToLower(word)}}
}

var unitWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19, "dozen": 12, "couple": 2, "single": 1,
}

var tensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// numberWord parses a single digit string or spelled-out number.
func numberWord(lower string) (int, bool) {
	if lower == "" {
		return 0, false
	}
	if v, ok := unitWords[lower]; ok {
		return v, true
	}
	if v, ok := tensWords[lower]; ok {
		return v, true
	}
	for _, r := range lower {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(lower)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseAmount reads a price-like token such as "$1,200" or "300".
func parseAmount(lower string) (value float64, currency bool, ok bool) {
	s := lower
	for len(s) > 0 {
		r := []rune(s)[0]
		if !unicode.Is(unicode.Sc, r) {
			break
		}
		currency = true
		s = s[len(string(r)):]
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, false, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false, false
	}
	return v, currency, true
}
