package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchEncoder splits large inputs into fixed-size batches and encodes up
// to Concurrency of them at once. Output order matches input order.
type BatchEncoder struct {
	inner       Encoder
	batchSize   int
	concurrency int
}

// NewBatchEncoder wraps enc. Non-positive sizes fall back to one batch and
// one worker.
func NewBatchEncoder(enc Encoder, batchSize, concurrency int) *BatchEncoder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchEncoder{inner: enc, batchSize: batchSize, concurrency: concurrency}
}

// Model reports the wrapped encoder's model.
func (b *BatchEncoder) Model() string {
	return b.inner.Model()
}

// Encode encodes texts batch by batch. The first failing batch cancels the
// rest and its error is returned.
func (b *BatchEncoder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	if b.batchSize <= 0 || len(texts) <= b.batchSize {
		return b.inner.Encode(ctx, texts)
	}

	out := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for start := 0; start < len(texts); start += b.batchSize {
		end := min(start+b.batchSize, len(texts))
		g.Go(func() error {
			vectors, err := b.inner.Encode(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("batch [%d:%d]: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("batch [%d:%d]: got %d vectors", start, end, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
