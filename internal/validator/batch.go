package validator

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/metrics"
)

// MaxConcurrency caps in-flight requests per ValidateMany call.
const MaxConcurrency = 8

// ValidateMany validates urls concurrently and returns results in input
// order. Each URL keeps its own timeout; a failing or slow URL never cancels
// the others, and cancelling ctx after the call starts does not abort the
// batch. A URL waiting on its host's rate limit holds no request slot, so a
// heavily cited host never delays other hosts.
func (v *Validator) ValidateMany(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results
	}
	metrics.ValidationBatchSize.Observe(float64(len(urls)))

	ctx = context.WithoutCancel(ctx)
	doer := v.batchDoer()
	slots := semaphore.NewWeighted(MaxConcurrency)

	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			results[i] = v.observe(ctx, u, func(ctx context.Context) Result {
				if res, ok := v.pace(ctx, u); !ok {
					return res
				}
				if err := slots.Acquire(ctx, 1); err != nil {
					return rejected(Result{URL: u}, classifyError(err), err.Error())
				}
				defer slots.Release(1)
				return v.check(ctx, u, doer)
			})
			return nil
		})
	}
	_ = g.Wait()
	return results
}
