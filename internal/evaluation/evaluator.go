// Package evaluation scores ranked retrieval results against relevance judgments.
package evaluation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ricesearch/rice-eval/internal/dataset"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// Searcher answers a query with document IDs ranked best first.
// It must be safe for concurrent use when the evaluator has more than one worker.
type Searcher interface {
	Search(ctx context.Context, query string) ([]int, error)
}

// Progress is notified once per evaluated query.
type Progress interface {
	Add(n int) error
}

// Result holds the per-query metrics and their aggregate.
type Result struct {
	PerQuery []QueryMetrics `json:"per_query"`
	Summary  Summary        `json:"summary"`
}

// Evaluator orchestrates search evaluation.
type Evaluator struct {
	scorer  Scorer
	workers int
}

// NewEvaluator creates a new evaluator. workers below 1 means sequential.
func NewEvaluator(scorer Scorer, workers int) *Evaluator {
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{
		scorer:  scorer,
		workers: workers,
	}
}

// Evaluate runs every query through searcher, scores each result list and
// aggregates them. Per-query metrics keep query order whatever the worker count.
// progress may be nil.
func (e *Evaluator) Evaluate(ctx context.Context, searcher Searcher, queries []dataset.Query, qrels dataset.Qrels, progress Progress) (*Result, error) {
	perQuery := make([]QueryMetrics, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			retrieved, err := searcher.Search(gctx, q.Text)
			if err != nil {
				return errors.SearchError(fmt.Sprintf("query %d", q.ID), err)
			}

			m := e.scorer.Score(retrieved, qrels.Relevant(q.ID))
			m.QueryID = q.ID
			perQuery[i] = m

			if progress != nil {
				_ = progress.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		PerQuery: perQuery,
		Summary:  Aggregate(perQuery),
	}, nil
}
