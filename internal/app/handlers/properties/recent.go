package properties

import (
	lru "github.com/hashicorp/golang-lru/v2"

	domain "staysearch/internal/domain/search"
)

const defaultRecentSize = 1000

// RecentProperties remembers properties handed out by searches so their
// details can be served without asking the upstream again.
type RecentProperties struct {
	cache *lru.Cache[string, domain.Property]
}

func NewRecentProperties(size int) *RecentProperties {
	if size <= 0 {
		size = defaultRecentSize
	}
	cache, err := lru.New[string, domain.Property](size)
	if err != nil {
		panic(err)
	}
	return &RecentProperties{cache: cache}
}

func (r *RecentProperties) Remember(props []domain.Property) {
	if r == nil {
		return
	}
	for _, p := range props {
		if p.ID != "" {
			r.cache.Add(p.ID, p)
		}
	}
}

func (r *RecentProperties) Lookup(id string) (domain.Property, bool) {
	if r == nil {
		return domain.Property{}, false
	}
	return r.cache.Get(id)
}

func (r *RecentProperties) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}
