package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"staysearch/internal/app/interpret"
	domain "staysearch/internal/domain/search"
)

// MaxRequestRunes bounds the trimmed query accepted from clients.
const MaxRequestRunes = 500

// Request is the inbound search call.
type Request struct {
	Query   string
	Filters domain.Filters
}

// ValidateRequest rejects malformed input before any upstream call and returns
// the sanitized query.
func ValidateRequest(req Request) (string, error) {
	trimmed := strings.TrimSpace(req.Query)
	if trimmed == "" {
		return "", domain.Validation("query is required")
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxRequestRunes {
		return "", domain.Validation(fmt.Sprintf("query is %d characters, the limit is %d", n, MaxRequestRunes))
	}
	if len(req.Filters.Amenities) > domain.MaxFilterTokens {
		return "", domain.Validation(fmt.Sprintf("at most %d amenity filters are allowed", domain.MaxFilterTokens))
	}
	if len(req.Filters.PropertyTypes) > domain.MaxFilterTokens {
		return "", domain.Validation(fmt.Sprintf("at most %d property type filters are allowed", domain.MaxFilterTokens))
	}
	clean := interpret.Sanitize(trimmed)
	if clean == "" {
		return "", domain.Validation("query has no searchable text")
	}
	return clean, nil
}

func sanitizeFilters(f domain.Filters) domain.Filters {
	clean := func(items []string) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := interpret.Sanitize(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return domain.Filters{Amenities: clean(f.Amenities), PropertyTypes: clean(f.PropertyTypes)}
}
