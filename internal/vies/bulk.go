package vies

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// defaultBulkConcurrency bounds parallel registry calls so bulk jobs do not
// hammer the EC endpoint.
const defaultBulkConcurrency = 4

// BulkValidate checks a batch of VAT numbers concurrently and returns results
// in input order. Individual registry failures surface as degraded results,
// so the returned error is only ever the context's.
func (c *Client) BulkValidate(ctx context.Context, vatNumbers []string, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = defaultBulkConcurrency
	}
	results := make([]Result, len(vatNumbers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, vat := range vatNumbers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.Validate(ctx, vat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RefreshCached re-validates every cached verdict against the live registry,
// replacing entries that the registry still answers for. Used by the nightly
// refresh job. Returns the number of verdicts refreshed.
func (c *Client) RefreshCached(ctx context.Context, concurrency int) (int, error) {
	keys, err := c.cache.Keys(ctx)
	if err != nil {
		return 0, err
	}
	vats := make([]string, 0, len(keys))
	for _, key := range keys {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) != 3 {
			continue
		}
		c.cache.Drop(ctx, key)
		vats = append(vats, parts[1]+parts[2])
	}
	results, err := c.BulkValidate(ctx, vats, concurrency)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, r := range results {
		if !r.Unavailable {
			refreshed++
		}
	}
	return refreshed, nil
}
