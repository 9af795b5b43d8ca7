package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"staysearch/internal/domain/shared/money"
)

var (
	isoCurrency   = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|JPY|AUD|CAD|NZD|CHF|MXN|BRL|INR|THB|IDR|ZAR|AED|SEK|NOK|DKK)\b`)
	priceNumber   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	ratingPattern = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?)\s*(?:\(\s*([\d,]+)\s*\))?`)
)

// currencySymbols is checked in order, so prefixed symbols precede "$".
var currencySymbols = []struct{ symbol, code string }{
	{"R$", "BRL"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"฿", "THB"},
	{"$", "USD"},
}

var priceKeys = []string{"amount", "value", "price", "rate", "total", "nightly", "perNight"}

// parsePrice accepts numbers, strings such as "$150" or "150.50 EUR" and objects
// like {"price": 200} or {"amount": 99, "currency": "EUR"}.
func parsePrice(v any, currencyHint string) (money.Money, bool) {
	return parsePriceDepth(v, currencyHint, 0)
}

func parsePriceDepth(v any, currency string, depth int) (money.Money, bool) {
	if depth > 3 || v == nil {
		return money.Money{}, false
	}
	switch t := v.(type) {
	case string:
		return parsePriceString(t, currency)
	case map[string]any:
		if c := firstString(t, []string{"currency", "currencyCode"}); len(c) == 3 {
			currency = c
		}
		for _, key := range priceKeys {
			if inner, ok := t[key]; ok {
				if m, ok := parsePriceDepth(inner, currency, depth+1); ok {
					return m, true
				}
			}
		}
		return money.Money{}, false
	case []any:
		for _, item := range t {
			if m, ok := parsePriceDepth(item, currency, depth+1); ok {
				return m, true
			}
		}
		return money.Money{}, false
	default:
		amount, ok := asFloat(v)
		if !ok {
			return money.Money{}, false
		}
		m, err := money.FromMajor(amount, currencyOrDefault(currency))
		return m, err == nil
	}
}

func parsePriceString(s, currency string) (money.Money, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return money.Money{}, false
	}
	if code := isoCurrency.FindString(s); code != "" {
		currency = strings.ToUpper(code)
	} else {
		for _, cs := range currencySymbols {
			if strings.Contains(s, cs.symbol) {
				currency = cs.code
				break
			}
		}
	}
	match := priceNumber.FindString(s)
	if match == "" {
		return money.Money{}, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return money.Money{}, false
	}
	m, err := money.FromMajor(amount, currencyOrDefault(currency))
	return m, err == nil
}

func currencyOrDefault(currency string) string {
	if len(strings.TrimSpace(currency)) != 3 {
		return money.DefaultCurrency
	}
	return currency
}

// parseRating accepts 4.5, "4.5", "4.81 (53)" and "New". The review count is
// reported when the string carries one.
func parseRating(v any) (rating *float64, reviews int, hasReviews bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.HasPrefix(strings.ToLower(s), "new") {
			return nil, 0, false
		}
		m := ratingPattern.FindStringSubmatch(s)
		if m == nil {
			return nil, 0, false
		}
		value, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			return nil, 0, false
		}
		if m[2] != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", "")); err == nil {
				reviews, hasReviews = n, true
			}
		}
		if value < 0 || value > 5 {
			return nil, reviews, hasReviews
		}
		return &value, reviews, hasReviews
	default:
		value, ok := asFloat(v)
		if !ok || value < 0 || value > 5 {
			return nil, 0, false
		}
		return &value, 0, false
	}
}

var imageKeys = []string{"picture", "url", "src", "baseUrl", "large", "original", "href"}
var imageListKeys = []string{"images", "pictures", "photos", "contextualPictures"}

// parseImages collects valid absolute URLs, deduplicated in order.
func parseImages(v any) []string {
	var out []string
	seen := map[string]struct{}{}
	collectImages(v, 0, func(u string) {
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	})
	return out
}

func collectImages(v any, depth int, add func(string)) {
	if depth > 3 {
		return
	}
	switch t := v.(type) {
	case string:
		if u, ok := validImageURL(t); ok {
			add(u)
		}
	case []any:
		for _, item := range t {
			collectImages(item, depth+1, add)
		}
	case map[string]any:
		for _, key := range imageListKeys {
			if inner, ok := t[key]; ok {
				collectImages(inner, depth+1, add)
			}
		}
		for _, key := range imageKeys {
			if inner, ok := t[key].(string); ok {
				if u, ok := validImageURL(inner); ok {
					add(u)
					return
				}
			}
		}
	}
}

func validImageURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	if strings.ContainsAny(u, " \t\n\"'<>") {
		return "", false
	}
	lower := strings.ToLower(u)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) && len(u) > len(scheme)+3 {
			return u, true
		}
	}
	return "", false
}
