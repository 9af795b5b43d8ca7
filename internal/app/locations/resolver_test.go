package locations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/domain/search"
)

func ids(targets []search.LocationTarget) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.ID)
	}
	return out
}

func TestResolveStateExpandsToThreeCities(t *testing.T) {
	r := NewResolver(nil, nil)

	targets := r.Resolve([]string{"Texas"})

	assert.Equal(t, []string{"austin-us", "houston-us", "dallas-us"}, ids(targets))
	assert.Equal(t, "Austin, United States", targets[0].DisplayName)
}

func TestResolveEmptyFallsBackToGlobalSet(t *testing.T) {
	r := NewResolver(nil, nil)

	targets := r.Resolve(nil)

	require.Len(t, targets, defaultGlobalCount)
	assert.Equal(t, "new-york-us", targets[0].ID)
	assert.Equal(t, ids(targets), ids(r.Resolve([]string{"worldwide"})))
}

func TestResolveRegionAndDedupe(t *testing.T) {
	r := NewResolver(nil, nil)

	targets := r.Resolve([]string{"Europe", "Paris", "london"})

	assert.Equal(t, []string{"london-gb", "paris-fr", "barcelona-es", "rome-it", "amsterdam-nl"}, ids(targets))
}

func TestResolveCapsTargets(t *testing.T) {
	r := NewResolver(nil, nil)
	r.MaxTargets = 4

	targets := r.Resolve([]string{"Asia", "Europe"})

	assert.Len(t, targets, 4)
}

func TestResolveUnknownPhrasePassesThrough(t *testing.T) {
	r := NewResolver(nil, nil)

	targets := r.Resolve([]string{"boise"})

	require.Len(t, targets, 1)
	assert.Equal(t, "q-boise", targets[0].ID)
	assert.Equal(t, "Boise", targets[0].DisplayName)
	assert.Equal(t, "Boise", targets[0].City)
}

func TestCatalogKnownAndAliasWords(t *testing.T) {
	c := DefaultCatalog()

	display, ok := c.Known("NYC")
	assert.True(t, ok)
	assert.Equal(t, "New York", display)
	_, ok = c.Known("atlantis")
	assert.False(t, ok)
	assert.GreaterOrEqual(t, c.MaxAliasWords(), 4)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "rio-de-janeiro", Slug("Rio de Janeiro!"))
	assert.Equal(t, "st-john-s", Slug("St. John's"))
}
