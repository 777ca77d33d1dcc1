package reduction

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

// PCA is a linear projector onto the first two principal components. It is
// deterministic up to component sign and ignores perplexity beyond the shared
// range check.
type PCA struct{}

// Project implements Projector.
func (PCA) Project(ctx context.Context, data *mat.Dense, perplexity float64) (*mat.Dense, error) {
	n, _ := data.Dims()
	if err := checkPerplexity(perplexity, n); err != nil {
		return nil, err
	}
	proj, err := principalComponents(data, 2)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", genre.ErrReduction, err)
	}
	return proj, nil
}

// principalComponents projects the centered rows of data onto the first k
// principal directions.
func principalComponents(data mat.Matrix, k int) (*mat.Dense, error) {
	n, d := data.Dims()
	if n < 2 || min(n, d) < k {
		return nil, fmt.Errorf("need at least %d samples and features for %d components, have %dx%d", k, k, n, d)
	}

	centered := mat.DenseCopyOf(data)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, centered)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(centered, nil); !ok {
		return nil, fmt.Errorf("principal component analysis did not converge")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, k))
	return &proj, nil
}
