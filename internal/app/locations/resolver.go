package locations

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"staysearch/internal/domain/search"
)

const (
	defaultGlobalCount   = 8
	defaultMaxTargets    = 10
	countryOrStateFanout = 3
	regionFanout         = 5
)

// Resolver turns location phrases into concrete targets to query.
type Resolver struct {
	Catalog     *Catalog
	GlobalCount int
	MaxTargets  int
	Logger      *slog.Logger
}

// NewResolver wires a resolver over the given catalog with default caps.
func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Resolver{Catalog: catalog, GlobalCount: defaultGlobalCount, MaxTargets: defaultMaxTargets, Logger: logger}
}

// Resolve expands phrases into an ordered, deduplicated list of targets.
// An empty phrase list resolves to the global default set.
func (r *Resolver) Resolve(phrases []string) []search.LocationTarget {
	if len(phrases) == 0 {
		return r.dedupe(r.global())
	}
	var targets []search.LocationTarget
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		targets = append(targets, r.resolveOne(phrase)...)
	}
	if len(targets) == 0 {
		return r.dedupe(r.global())
	}
	return r.dedupe(targets)
}

func (r *Resolver) resolveOne(phrase string) []search.LocationTarget {
	e, ok := r.Catalog.lookup(phrase)
	if !ok {
		if r.Logger != nil {
			r.Logger.Debug("location not in catalog, passing through", "phrase", phrase)
		}
		return []search.LocationTarget{freeText(phrase)}
	}
	if e.city != nil {
		return []search.LocationTarget{cityTarget(e.city)}
	}
	switch e.group.Kind {
	case GroupGlobal:
		return r.global()
	case GroupRegion:
		return r.members(e.group, regionFanout)
	default:
		return r.members(e.group, countryOrStateFanout)
	}
}

func (r *Resolver) global() []search.LocationTarget {
	if r.Catalog.global == nil {
		return nil
	}
	n := r.GlobalCount
	if n <= 0 {
		n = defaultGlobalCount
	}
	return r.members(r.Catalog.global, n)
}

func (r *Resolver) members(group *Group, limit int) []search.LocationTarget {
	out := make([]search.LocationTarget, 0, limit)
	for _, id := range group.Members {
		if len(out) == limit {
			break
		}
		city, ok := r.Catalog.city(id)
		if !ok {
			continue
		}
		out = append(out, cityTarget(city))
	}
	return out
}

func (r *Resolver) dedupe(targets []search.LocationTarget) []search.LocationTarget {
	limit := r.MaxTargets
	if limit <= 0 {
		limit = defaultMaxTargets
	}
	out := make([]search.LocationTarget, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}

func cityTarget(city *City) search.LocationTarget {
	return search.LocationTarget{
		ID:          city.ID,
		DisplayName: city.Name + ", " + city.Country,
		City:        city.Name,
		Country:     city.Country,
	}
}

var titleCaser = cases.Title(language.English)

func freeText(phrase string) search.LocationTarget {
	display := phrase
	if strings.ToLower(phrase) == phrase || strings.ToUpper(phrase) == phrase {
		display = titleCaser.String(phrase)
	}
	return search.LocationTarget{
		ID:          "q-" + Slug(phrase),
		DisplayName: display,
		City:        display,
	}
}

// Slug lowercases and hyphenates a phrase for use in identifiers.
func Slug(phrase string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(phrase) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
