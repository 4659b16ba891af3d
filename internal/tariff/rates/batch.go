package rates

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tariff-workers/internal/common/errors"
	"tariff-workers/internal/models"
)

// BatchItem is one entry of ResolveBatch, in input order. Exactly one of
// Resolution and Error is set.
type BatchItem struct {
	Code       string                 `json:"code"`
	Resolution *models.RateResolution `json:"resolution,omitempty"`
	Error      *errors.StandardError  `json:"error,omitempty"`
}

// ResolveBatch resolves codes concurrently, bounded by the configured
// concurrency. Per-code failures are reported in their item; the batch only
// fails when ctx is cancelled.
func (r *Resolver) ResolveBatch(ctx context.Context, codes []string) ([]BatchItem, error) {
	items := make([]BatchItem, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			items[i].Code = code
			res, err := r.Resolve(gctx, code)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				items[i].Error = errors.AsStandardError(err)
				return nil
			}
			items[i].Resolution = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
