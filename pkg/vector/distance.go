package vector

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when vector dimensions don't match
var ErrDimensionMismatch = fmt.Errorf("vector dimensions mismatch")

// Normalize returns v scaled to unit length. Zero vectors are returned as is.
func Normalize(v []float64) []float64 {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	floats.ScaleTo(out, 1/norm, v)
	return out
}

// Matrix stacks equal-length vectors into a dense row-major matrix.
func Matrix(vectors [][]float64) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-length vector")
	}
	data := make([]float64, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return mat.NewDense(len(vectors), dim, data), nil
}

// SquaredDistances returns the n×n matrix of squared Euclidean distances
// between the rows of x.
func SquaredDistances(x mat.Matrix) *mat.SymDense {
	n, _ := x.Dims()
	sum := make([]float64, n)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, x)
		sum[i] = floats.Dot(row, row)
	}

	var gram mat.Dense
	gram.Mul(x, x.T())

	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := sum[i] + sum[j] - 2*gram.At(i, j)
			if v < 0 {
				v = 0
			}
			d.SetSym(i, j, v)
		}
	}
	return d
}
