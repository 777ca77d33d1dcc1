package colorize

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

// weightEpsilon keeps the inverse-distance weight finite when a point sits
// exactly on a center.
const weightEpsilon = 1e-8

// SoftWeights returns, for every point, a distribution over the centers:
// w[i][c] ∝ 1 / (dist(i, c)^smoothing + ε), normalized to sum to 1.
// Rows where every power overflows are recomputed in log space.
func SoftWeights(points, centers []genre.Point, smoothing float64) [][]float64 {
	weights := make([][]float64, len(points))
	dist := make([]float64, len(centers))
	for i, p := range points {
		row := make([]float64, len(centers))
		var sum float64
		for c, center := range centers {
			dist[c] = math.Hypot(p.X-center.X, p.Y-center.Y)
			row[c] = 1 / (math.Pow(dist[c], smoothing) + weightEpsilon)
			sum += row[c]
		}
		if sum == 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
			logWeights(row, dist, smoothing)
		} else {
			for c := range row {
				row[c] /= sum
			}
		}
		weights[i] = row
	}
	return weights
}

// logWeights fills row with the same distribution as SoftWeights, using
// log w_c = -log(d_c^smoothing + ε) and log-sum-exp normalisation.
func logWeights(row, dist []float64, smoothing float64) {
	logEps := math.Log(weightEpsilon)
	for c, d := range dist {
		row[c] = -logAddExp(smoothing*math.Log(d), logEps)
	}
	norm := floats.LogSumExp(row)
	for c := range row {
		row[c] = math.Exp(row[c] - norm)
	}
}

// logAddExp returns log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(a, -1) {
		return a
	}
	return a + math.Log1p(math.Exp(b-a))
}
