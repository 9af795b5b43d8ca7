package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staysearch/internal/app/fetch"
	"staysearch/internal/app/normalize"
	"staysearch/internal/app/ranking"
	domain "staysearch/internal/domain/search"
)

// EventSearchCompleted is emitted after every successful search.
const EventSearchCompleted = "search.completed"

type Interpreter interface {
	Interpret(query string) domain.Criteria
}

type Resolver interface {
	Resolve(phrases []string) []domain.LocationTarget
}

type Dispatcher interface {
	Dispatch(ctx context.Context, sources []fetch.Source, targets []domain.LocationTarget, criteria domain.SourceCriteria) (fetch.Outcome, error)
}

type Ranker interface {
	Select(ctx context.Context, pool []domain.Candidate, criteria domain.Criteria) ranking.Selection
}

// EventSink receives operational events. Failures are logged, never surfaced.
type EventSink interface {
	Emit(ctx context.Context, name, key string, payload any) error
}

// Observer records search outcomes.
type Observer interface {
	ObserveSearch(outcome string, took time.Duration)
}

// Engine runs the whole search pipeline for one request.
type Engine struct {
	Interpreter Interpreter
	Resolver    Resolver
	Dispatcher  Dispatcher
	Normalizer  normalize.Normalizer
	Ranker      Ranker
	Sources     []fetch.Source
	Events      EventSink
	Metrics     Observer
	Logger      *slog.Logger
	Now         func() time.Time
}

var ErrEngineNotConfigured = errors.New("search: engine not configured")

// CompletedEvent is the payload of search.completed. It never carries query text.
type CompletedEvent struct {
	Locations        []string           `json:"locations"`
	TotalCandidates  int                `json:"totalCandidates"`
	Returned         int                `json:"returned"`
	Failures         int                `json:"failures"`
	RankingPath      domain.RankingPath `json:"rankingPath"`
	ProcessingTimeMs float64            `json:"processingTimeMs"`
}

// Search validates, interprets, fetches, normalizes and ranks. Only validation
// and all-sources-failed errors are returned.
func (e *Engine) Search(ctx context.Context, req Request) (domain.Result, error) {
	if e == nil || e.Interpreter == nil || e.Resolver == nil || e.Dispatcher == nil || e.Ranker == nil {
		return domain.Result{}, ErrEngineNotConfigured
	}
	start := e.now()

	query, err := ValidateRequest(req)
	if err != nil {
		e.observe("invalid", start)
		return domain.Result{}, err
	}

	criteria := e.Interpreter.Interpret(query).WithFilters(sanitizeFilters(req.Filters))
	targets := e.Resolver.Resolve(criteria.LocationPhrases)
	logger := e.logger().With("targets", len(targets), "sources", len(e.Sources))

	outcome, err := e.Dispatcher.Dispatch(ctx, e.Sources, targets, criteria.SourceCriteria())
	if err != nil {
		logger.Warn("search failed", "error", err)
		e.observe("unavailable", start)
		return domain.Result{}, err
	}

	pool := make([]domain.Candidate, 0)
	for _, batch := range outcome.Batches {
		pool = append(pool, e.Normalizer.NormalizeBatch(batch.Listings, batch.Target)...)
	}

	selection := e.Ranker.Select(ctx, pool, criteria)
	result := Assemble(selection, outcome.Failures, e.now().Sub(start), targets, criteria)

	logger.Info("search completed",
		"candidates", result.TotalCandidates,
		"returned", len(result.Properties),
		"failures", len(result.PartialFailures),
		"ranking", result.RankingPath,
		"took_ms", result.ProcessingTimeMs,
	)
	e.observe("ok", start)
	e.emitCompleted(ctx, result)
	return result, nil
}

func (e *Engine) emitCompleted(ctx context.Context, result domain.Result) {
	if e.Events == nil {
		return
	}
	ids := make([]string, 0, len(result.Locations))
	for _, loc := range result.Locations {
		ids = append(ids, loc.ID)
	}
	payload := CompletedEvent{
		Locations:        ids,
		TotalCandidates:  result.TotalCandidates,
		Returned:         len(result.Properties),
		Failures:         len(result.PartialFailures),
		RankingPath:      result.RankingPath,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}
	key := ""
	if len(ids) > 0 {
		key = ids[0]
	}
	if err := e.Events.Emit(ctx, EventSearchCompleted, key, payload); err != nil {
		e.logger().Debug("search event dropped", "error", err)
	}
}

func (e *Engine) observe(outcome string, start time.Time) {
	if e.Metrics != nil {
		e.Metrics.ObserveSearch(outcome, e.now().Sub(start))
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
