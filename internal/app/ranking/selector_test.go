package ranking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staysearch/internal/domain/search"
	"staysearch/internal/domain/shared/money"
)

type collaboratorFunc func(ctx context.Context, query string, summaries []search.CandidateSummary, criteria search.Criteria) ([]string, error)

func (f collaboratorFunc) SelectBest(ctx context.Context, query string, summaries []search.CandidateSummary, criteria search.Criteria) ([]string, error) {
	return f(ctx, query, summaries, criteria)
}

type healthStub map[string]bool

func (h healthStub) Available(name string) bool {
	up, ok := h[name]
	return !ok || up
}

type pathRecorder struct{ paths []search.RankingPath }

func (r *pathRecorder) ObserveRanking(path search.RankingPath) { r.paths = append(r.paths, path) }

func prop(id string, dollars int64, rating float64) search.Property {
	r := rating
	return search.Property{ID: id, Title: "Stay " + id, Price: money.Must(dollars*100, "USD"), Rating: &r, Images: []string{}, Amenities: []string{}}
}

func candidates(props ...search.Property) []search.Candidate {
	out := make([]search.Candidate, 0, len(props))
	for _, p := range props {
		out = append(out, search.Candidate{Property: p, Source: "fixtures"})
	}
	return out
}

func ids(props []search.Property) []string {
	out := make([]string, 0, len(props))
	for _, p := range props {
		out = append(out, p.ID)
	}
	return out
}

func TestSelectFallbackOnCollaboratorTimeout(t *testing.T) {
	blocking := collaboratorFunc(func(ctx context.Context, _ string, _ []search.CandidateSummary, _ search.Criteria) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	rec := &pathRecorder{}
	s := &Selector{Collaborator: blocking, Timeout: 20 * time.Millisecond, Metrics: rec}
	criteria := search.DefaultCriteria("cheap")
	criteria.SortPreference = search.SortPriceAsc

	start := time.Now()
	sel := s.Select(context.Background(), candidates(prop("b", 100, 4), prop("a", 50, 4), prop("c", 200, 4)), criteria)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, search.RankingFallback, sel.Path)
	assert.Equal(t, []string{"a", "b", "c"}, ids(sel.Properties))
	assert.Equal(t, 3, sel.PoolSize)
	assert.Equal(t, []search.RankingPath{search.RankingFallback}, rec.paths)
}

func TestSelectUsesCollaboratorOrderAndTopsUp(t *testing.T) {
	var sent []search.CandidateSummary
	pick := collaboratorFunc(func(_ context.Context, query string, summaries []search.CandidateSummary, _ search.Criteria) ([]string, error) {
		sent = summaries
		assert.Equal(t, "villa", query)
		return []string{"p3", "unknown", "p1", "p3"}, nil
	})
	var pool []search.Property
	for i := 1; i <= 7; i++ {
		pool = append(pool, prop(fmt.Sprintf("p%d", i), int64(100*i), float64(i)/2))
	}
	s := &Selector{Collaborator: pick}

	sel := s.Select(context.Background(), candidates(pool...), search.DefaultCriteria("villa"))

	require.Len(t, sel.Properties, 5)
	assert.Equal(t, search.RankingCollaborator, sel.Path)
	assert.Equal(t, []string{"p3", "p1"}, ids(sel.Properties[:2]))
	assert.Len(t, sent, 7)
	seen := map[string]bool{}
	for _, p := range sel.Properties {
		assert.False(t, seen[p.ID], "duplicate %s", p.ID)
		seen[p.ID] = true
	}
}

func TestSelectFallsBackOnInvalidCollaboratorOutput(t *testing.T) {
	for name, collab := range map[string]collaboratorFunc{
		"error": func(context.Context, string, []search.CandidateSummary, search.Criteria) ([]string, error) {
			return nil, errors.New("boom")
		},
		"empty": func(context.Context, string, []search.CandidateSummary, search.Criteria) ([]string, error) {
			return []string{}, nil
		},
		"unknown ids": func(context.Context, string, []search.CandidateSummary, search.Criteria) ([]string, error) {
			return []string{"nope"}, nil
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := &Selector{Collaborator: collab}
			sel := s.Select(context.Background(), candidates(prop("x", 80, 3), prop("y", 90, 5)), search.DefaultCriteria("q"))
			assert.Equal(t, search.RankingFallback, sel.Path)
			assert.Equal(t, []string{"y", "x"}, ids(sel.Properties))
		})
	}
}

func TestSelectSkipsKnownDownCollaborator(t *testing.T) {
	called := false
	s := &Selector{
		Collaborator: collaboratorFunc(func(context.Context, string, []search.CandidateSummary, search.Criteria) ([]string, error) {
			called = true
			return []string{"x"}, nil
		}),
		Health: healthStub{CollaboratorName: false},
	}
	sel := s.Select(context.Background(), candidates(prop("x", 80, 3)), search.DefaultCriteria("q"))
	assert.False(t, called)
	assert.Equal(t, search.RankingFallback, sel.Path)
}

func TestSelectDedupesAndRanksLowConfidenceLast(t *testing.T) {
	pool := []search.Candidate{
		{Property: prop("a", 100, 4)},
		{Property: prop("a", 1, 5)},
		{Property: prop("z", 0, 5), LowConfidence: true},
		{Property: prop("b", 120, 3)},
	}
	sel := (&Selector{}).Select(context.Background(), pool, search.DefaultCriteria("q"))

	assert.Equal(t, 3, sel.PoolSize)
	assert.Equal(t, []string{"a", "b", "z"}, ids(sel.Properties))
	assert.Equal(t, int64(10000), sel.Properties[0].Price.Amount, "first duplicate wins")
}

func TestSelectOnlyLowConfidence(t *testing.T) {
	pool := []search.Candidate{{Property: prop("z", 0, 2), LowConfidence: true}}
	sel := (&Selector{}).Select(context.Background(), pool, search.DefaultCriteria("q"))
	assert.Equal(t, []string{"z"}, ids(sel.Properties))
}

func TestSelectEmptyPool(t *testing.T) {
	sel := (&Selector{}).Select(context.Background(), nil, search.DefaultCriteria("q"))
	assert.NotNil(t, sel.Properties)
	assert.Empty(t, sel.Properties)
}

func TestFallbackOrderSorts(t *testing.T) {
	unrated := search.Property{ID: "n", Price: money.Must(7000, "USD")}
	pool := []search.Property{prop("b", 100, 4.5), prop("a", 50, 3), prop("c", 200, 4.5), unrated}

	cases := []struct {
		sort search.SortPreference
		want []string
	}{
		{search.SortPriceAsc, []string{"a", "n", "b", "c"}},
		{search.SortPriceDesc, []string{"c", "b", "n", "a"}},
		{search.SortRatingDesc, []string{"b", "c", "a", "n"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.sort), func(t *testing.T) {
			c := search.DefaultCriteria("q")
			c.SortPreference = tc.sort
			assert.Equal(t, tc.want, ids(FallbackOrder(pool, c)))
		})
	}
	assert.Equal(t, "b", pool[0].ID, "input untouched")
}

func TestRelevanceBudgetBandPrefersCheaper(t *testing.T) {
	c := search.DefaultCriteria("budget stay")
	c.PriceBand = search.PriceBudget

	got := FallbackOrder([]search.Property{prop("mid", 100, 4), prop("cheap", 50, 4), prop("pricey", 200, 4)}, c)

	assert.Equal(t, []string{"cheap", "mid", "pricey"}, ids(got))
}

func TestRelevanceWeighsBedroomsAndGuests(t *testing.T) {
	c := search.DefaultCriteria("11 bedroom house for 20")
	c.BedroomsMin = search.IntPtr(11)
	c.GuestsMin = search.IntPtr(20)

	big := prop("big", 900, 4.0)
	big.Bedrooms, big.Guests = 11, 22
	small := prop("small", 150, 5.0)
	small.Bedrooms, small.Guests = 2, 4

	got := FallbackOrder([]search.Property{small, big}, c)
	assert.Equal(t, []string{"big", "small"}, ids(got))

	assert.InDelta(t, 0.35+0.25+0.2*0.8+0.1+0.1, Relevance(big, c, 1), 1e-9)
}

func TestRelevancePriceCeiling(t *testing.T) {
	c := search.DefaultCriteria("under 300")
	c.PriceMax = search.FloatPtr(300)

	over := prop("over", 450, 4)
	under := prop("under", 250, 4)
	assert.Greater(t, Relevance(under, c, 0), Relevance(over, c, 1))
}
