package ranking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysearch/internal/domain/search"
)

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxSummaries = 40

	// CollaboratorName is the health-monitor key of the ranking collaborator.
	CollaboratorName = "ranking"
)

// Collaborator picks the best listings for a query, most relevant first.
type Collaborator interface {
	SelectBest(ctx context.Context, query string, summaries []search.CandidateSummary, criteria search.Criteria) ([]string, error)
}

// Availability reports known-down dependencies.
type Availability interface {
	Available(name string) bool
}

// Observer records which ranking path produced a result.
type Observer interface {
	ObserveRanking(path search.RankingPath)
}

// Selector chooses the final properties from the normalized pool.
type Selector struct {
	Collaborator Collaborator
	Health       Availability
	Timeout      time.Duration
	Size         int
	MaxSummaries int
	Metrics      Observer
	Logger       *slog.Logger
}

// Selection is the ranked output of Select.
type Selection struct {
	Properties []search.Property
	Path       search.RankingPath
	PoolSize   int
}

// Select returns exactly min(Size, pool) properties. Collaborator failures never
// surface; they route to the deterministic fallback order.
func (s *Selector) Select(ctx context.Context, pool []search.Candidate, criteria search.Criteria) Selection {
	confident, shaky := partition(pool)
	poolSize := len(confident) + len(shaky)
	size := s.size()
	if poolSize < size {
		size = poolSize
	}
	if size == 0 {
		s.observe(search.RankingFallback)
		return Selection{Properties: []search.Property{}, Path: search.RankingFallback}
	}
	if len(confident) == 0 {
		confident, shaky = shaky, nil
	}

	fallback := FallbackOrder(confident, criteria)
	path := search.RankingFallback
	var chosen []search.Property

	ids, err := s.ask(ctx, confident, criteria)
	switch {
	case err != nil:
		if s.Logger != nil && !errors.Is(err, errCollaboratorSkipped) {
			s.Logger.Warn("ranking collaborator unavailable, using fallback", "error", err)
		}
	default:
		chosen = pickByID(confident, ids, size)
		if len(chosen) > 0 {
			path = search.RankingCollaborator
		} else if s.Logger != nil {
			s.Logger.Warn("ranking collaborator returned no known ids, using fallback", "returned", len(ids))
		}
	}

	chosen = topUp(chosen, fallback, size)
	if len(chosen) < size {
		chosen = topUp(chosen, FallbackOrder(shaky, criteria), size)
	}
	s.observe(path)
	return Selection{Properties: chosen, Path: path, PoolSize: poolSize}
}

var errCollaboratorSkipped = errors.New("ranking: collaborator skipped")

func (s *Selector) ask(ctx context.Context, candidates []search.Property, criteria search.Criteria) ([]string, error) {
	if s.Collaborator == nil {
		return nil, errCollaboratorSkipped
	}
	if s.Health != nil && !s.Health.Available(CollaboratorName) {
		return nil, errCollaboratorSkipped
	}

	limit := s.MaxSummaries
	if limit <= 0 {
		limit = defaultMaxSummaries
	}
	ordered := FallbackOrder(candidates, criteria)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	summaries := make([]search.CandidateSummary, 0, len(ordered))
	for _, p := range ordered {
		summaries = append(summaries, search.Summarize(p))
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		ids []string
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		ids, err := s.Collaborator.SelectBest(callCtx, criteria.RawQuery, summaries, criteria)
		replies <- reply{ids: ids, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			return nil, search.RankingUnavailable("collaborator failed", r.err)
		}
		if len(r.ids) == 0 {
			return nil, search.RankingUnavailable("collaborator returned no ids", nil)
		}
		return r.ids, nil
	case <-callCtx.Done():
		return nil, search.RankingUnavailable("collaborator timed out", callCtx.Err())
	}
}

func (s *Selector) size() int {
	if s.Size <= 0 {
		return search.ResultSize
	}
	return s.Size
}

func (s *Selector) observe(path search.RankingPath) {
	if s.Metrics != nil {
		s.Metrics.ObserveRanking(path)
	}
}

// partition dedupes by id, first occurrence wins, and splits off low-confidence listings.
func partition(pool []search.Candidate) (confident, shaky []search.Property) {
	seen := make(map[string]struct{}, len(pool))
	for _, c := range pool {
		if _, ok := seen[c.Property.ID]; ok {
			continue
		}
		seen[c.Property.ID] = struct{}{}
		if c.LowConfidence {
			shaky = append(shaky, c.Property)
			continue
		}
		confident = append(confident, c.Property)
	}
	return confident, shaky
}

// pickByID keeps the collaborator order, ignoring unknown and repeated ids.
func pickByID(props []search.Property, ids []string, limit int) []search.Property {
	byID := make(map[string]search.Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}
	out := make([]search.Property, 0, limit)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		p, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, p)
		delete(byID, id)
	}
	return out
}

func topUp(chosen, ordered []search.Property, limit int) []search.Property {
	if chosen == nil {
		chosen = make([]search.Property, 0, limit)
	}
	have := make(map[string]struct{}, len(chosen))
	for _, p := range chosen {
		have[p.ID] = struct{}{}
	}
	for _, p := range ordered {
		if len(chosen) >= limit {
			break
		}
		if _, ok := have[p.ID]; ok {
			continue
		}
		have[p.ID] = struct{}{}
		chosen = append(chosen, p)
	}
	return chosen
}
