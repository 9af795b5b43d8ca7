package search

import (
	"time"

	"staysearch/internal/app/ranking"
	domain "staysearch/internal/domain/search"
)

// Assemble builds the final result. It has no side effects.
func Assemble(sel ranking.Selection, failures []domain.Failure, elapsed time.Duration, targets []domain.LocationTarget, criteria domain.Criteria) domain.Result {
	props := sel.Properties
	if props == nil {
		props = []domain.Property{}
	}
	partial := append([]domain.Failure{}, failures...)
	locations := append([]domain.LocationTarget{}, targets...)
	path := sel.Path
	if path == "" {
		path = domain.RankingFallback
	}
	return domain.Result{
		Properties:       props,
		TotalCandidates:  sel.PoolSize,
		PartialFailures:  partial,
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000,
		Locations:        locations,
		Criteria:         criteria,
		RankingPath:      path,
	}
}
