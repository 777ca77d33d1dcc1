// Package embedding turns genre records into semantic vectors through a
// pluggable text-embedding backend.
package embedding

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

// Encoder is the text-embedding capability. Implementations return one
// vector per input text, in input order.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
}

// Result holds three parallel arrays aligned with the input catalog.
type Result struct {
	Vectors [][]float64
	Names   []string
	IDs     []int
}

// Len returns the number of embedded records.
func (r *Result) Len() int {
	return len(r.Vectors)
}

// Embed encodes every record as "<name>: <description>". There is no cache:
// each call re-embeds the full catalog.
func Embed(ctx context.Context, enc Encoder, records []genre.Record) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", genre.ErrDataLoad)
	}

	texts := make([]string, len(records))
	res := &Result{
		Names: make([]string, len(records)),
		IDs:   make([]int, len(records)),
	}
	for i, rec := range records {
		texts[i] = rec.Text()
		res.Names[i] = rec.Name
		res.IDs[i] = rec.ID
	}

	vectors, err := enc.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode with %s: %w", enc.Model(), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("encoder %s returned %d vectors for %d texts", enc.Model(), len(vectors), len(texts))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("encoder %s returned vector of length %d for %q, want %d",
				enc.Model(), len(v), res.Names[i], dim)
		}
	}
	res.Vectors = vectors
	return res, nil
}
