package fetch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"staysearch/internal/domain/search"
)

const defaultMaxConcurrency = 5

// SourceFetcher performs a single guarded call.
type SourceFetcher interface {
	Fetch(ctx context.Context, src Source, target search.LocationTarget, criteria search.SourceCriteria) ([]search.RawListing, error)
}

// Batch is the successful output of one (source, target) fetch.
type Batch struct {
	Source   string
	Target   search.LocationTarget
	Listings []search.RawListing
}

// Outcome gathers batches and failures of a dispatch, in job order.
type Outcome struct {
	Batches  []Batch
	Failures []search.Failure
}

// Dispatcher fans fetches out over every (source, target) pair with bounded concurrency.
type Dispatcher struct {
	Fetcher        SourceFetcher
	MaxConcurrency int
	Logger         *slog.Logger
}

type job struct {
	source Source
	target search.LocationTarget
}

type jobResult struct {
	listings []search.RawListing
	err      error
}

// Dispatch waits for every job. It only errors when no job succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, sources []Source, targets []search.LocationTarget, criteria search.SourceCriteria) (Outcome, error) {
	jobs := make([]job, 0, len(sources)*len(targets))
	for _, target := range targets {
		for _, src := range sources {
			jobs = append(jobs, job{source: src, target: target})
		}
	}
	if len(jobs) == 0 {
		return Outcome{}, search.AllSourcesFailed(nil)
	}

	results := make([]jobResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(d.maxConcurrency())
	for i, j := range jobs {
		g.Go(func() error {
			listings, err := d.Fetcher.Fetch(ctx, j.source, j.target, criteria)
			results[i] = jobResult{listings: listings, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var out Outcome
	for i, res := range results {
		j := jobs[i]
		if res.err != nil {
			out.Failures = append(out.Failures, search.Failure{
				Source: j.source.Name(),
				Target: j.target.ID,
				Reason: search.KindOf(res.err),
			})
			continue
		}
		out.Batches = append(out.Batches, Batch{Source: j.source.Name(), Target: j.target, Listings: res.listings})
	}
	if d.Logger != nil {
		d.Logger.Info("dispatch finished", "jobs", len(jobs), "succeeded", len(out.Batches), "failed", len(out.Failures))
	}
	if len(out.Batches) == 0 {
		return out, search.AllSourcesFailed(out.Failures)
	}
	return out, nil
}

func (d *Dispatcher) maxConcurrency() int {
	if d.MaxConcurrency <= 0 {
		return defaultMaxConcurrency
	}
	return d.MaxConcurrency
}
