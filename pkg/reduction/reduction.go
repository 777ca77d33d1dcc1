// Package reduction projects embedding vectors onto the 2D genre map.
package reduction

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/vector"
)

// Projector is the 2D projection capability. It returns an n×2 matrix whose
// rows follow the rows of data. Implementations reject perplexity values
// outside (0, n) with an error wrapping genre.ErrReduction.
type Projector interface {
	Project(ctx context.Context, data *mat.Dense, perplexity float64) (*mat.Dense, error)
}

// Reduce projects the embedding vectors and pairs each coordinate with its
// genre. Coordinates are not normalized.
func Reduce(ctx context.Context, proj Projector, names []string, vectors [][]float64, ids []int, perplexity float64) ([]genre.Point, error) {
	if perplexity <= 0 {
		return nil, fmt.Errorf("%w: perplexity must be positive, got %v", genre.ErrConfiguration, perplexity)
	}
	n := len(vectors)
	if len(names) != n || len(ids) != n {
		return nil, fmt.Errorf("%w: misaligned inputs: %d names, %d vectors, %d ids",
			genre.ErrReduction, len(names), n, len(ids))
	}
	if err := checkPerplexity(perplexity, n); err != nil {
		return nil, err
	}

	data, err := vector.Matrix(vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", genre.ErrReduction, err)
	}

	coords, err := proj.Project(ctx, data, perplexity)
	if err != nil {
		return nil, err
	}
	if r, c := coords.Dims(); r != n || c != 2 {
		return nil, fmt.Errorf("%w: projection returned %dx%d, want %dx2", genre.ErrReduction, r, c, n)
	}

	points := make([]genre.Point, n)
	for i := range points {
		points[i] = genre.Point{
			ID:   ids[i],
			Name: names[i],
			X:    coords.At(i, 0),
			Y:    coords.At(i, 1),
		}
	}
	return points, nil
}

func checkPerplexity(perplexity float64, n int) error {
	if perplexity <= 0 || perplexity >= float64(n) {
		return fmt.Errorf("%w: perplexity (%v) must be less than n_samples (%d)", genre.ErrReduction, perplexity, n)
	}
	return nil
}
