package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one upload with its outcome. Failed items carry a
// nil File and a non-nil Err; batch processing never aborts the whole
// run because one file failed.
type BatchResult struct {
	Upload FileUpload
	File   *ProcessedFile
	Err    error
}

// ProcessAll runs the pipeline over a set of uploads with bounded
// concurrency. Results come back in input order. A cancelled context
// stops scheduling; in-flight files report the cancellation as their
// own error.
func (p *Pipeline) ProcessAll(ctx context.Context, uploads []FileUpload, userID string, concurrency int) []BatchResult {
	if concurrency < 1 {
		concurrency = 4
	}

	results := make([]BatchResult, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range uploads {
		results[i].Upload = u
		g.Go(func() error {
			f, err := p.ProcessFile(gctx, u, userID)
			results[i].File = f
			results[i].Err = err
			// Per-file failures stay in the result slot so the
			// rest of the batch keeps going.
			return nil
		})
	}
	g.Wait()
	return results
}
