package properties

import (
	"context"
	"fmt"
	"strings"

	appsearch "staysearch/internal/app/search"
	domain "staysearch/internal/domain/search"
)

const (
	maxPartialRunes = 200
	maxIDLength     = 128
)

// Validator rejects malformed property queries before they reach a handler.
type Validator struct{}

func (Validator) Validate(_ context.Context, message any) error {
	switch q := message.(type) {
	case SearchPropertiesQuery:
		_, err := appsearch.ValidateRequest(appsearch.Request{
			Query:   q.Query,
			Filters: domain.Filters{Amenities: q.Amenities, PropertyTypes: q.PropertyTypes},
		})
		return err
	case SuggestQuery:
		if n := len([]rune(q.Partial)); n > maxPartialRunes {
			return domain.Validation(fmt.Sprintf("partial query is %d characters, the limit is %d", n, maxPartialRunes))
		}
	case GetPropertyQuery:
		return validateID(strings.TrimSpace(q.ID))
	}
	return nil
}

// validateID accepts catalog slugs, numeric upstream ids, UUIDs and ObjectIDs.
func validateID(id string) error {
	if id == "" {
		return domain.Validation("property id is required")
	}
	if len(id) > maxIDLength {
		return domain.Validation(fmt.Sprintf("property id is longer than %d characters", maxIDLength))
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == ':':
		default:
			return domain.Validation("property id contains invalid characters")
		}
	}
	return nil
}
