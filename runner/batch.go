package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rolemesh/society"
)

// BatchResult is the outcome of one query in RunBatch.
type BatchResult struct {
	Query  string         `json:"query" yaml:"query"`
	Result society.Result `json:"result" yaml:"result"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the query ended with an error.
func (b BatchResult) Failed() bool { return b.Error != "" }

// RunBatch answers every query with its own Society, at most
// Options.Concurrency at a time. Results keep the order of queries.
//
// A failing query is recorded in its BatchResult and never cancels the
// others. The returned error is reserved for provider setup and ctx.
func (r *Runner) RunBatch(ctx context.Context, queries []string) ([]BatchResult, error) {
	if r.factory == nil {
		return nil, ErrNoFactory
	}

	defer r.disconnect(ctx)
	if err := r.provider.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect tools: %w", err)
	}

	results := make([]BatchResult, len(queries))

	g := new(errgroup.Group)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}

	for i, q := range queries {
		g.Go(func() error {
			res, err := r.process(ctx, q, r.opts.BatchRoundLimit)
			results[i] = BatchResult{Query: q, Result: res}
			if err != nil {
				results[i].Error = err.Error()
				r.logger.Warn("runner.batch.query.failed", "index", i, "error", err.Error())
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, nil
}
