package reduction

import (
	"context"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-genremap/pkg/vector"
)

const (
	machineEpsilon   = 2.220446049250313e-16
	entropyTolerance = 1e-5
	maxSearchSteps   = 100
	minGain          = 0.01
	minGradNorm      = 1e-7
)

// TSNEConfig parameterizes the t-SNE optimizer. Zero values select defaults.
type TSNEConfig struct {
	Iterations            int     // total gradient steps (default 1000)
	ExplorationIterations int     // steps with early exaggeration (default 250)
	EarlyExaggeration     float64 // default 12
	LearningRate          float64 // 0 selects max(n/exaggeration/4, 50)
	Rand                  *rand.Rand
}

// TSNE is an exact (O(n²) per step) t-SNE projector. It is meant for
// catalog-sized inputs of a few hundred points.
type TSNE struct {
	cfg TSNEConfig
}

// NewTSNE creates a projector. Without cfg.Rand the run is time-seeded and
// therefore not reproducible.
func NewTSNE(cfg TSNEConfig) *TSNE {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.ExplorationIterations <= 0 {
		cfg.ExplorationIterations = 250
	}
	if cfg.ExplorationIterations > cfg.Iterations {
		cfg.ExplorationIterations = cfg.Iterations
	}
	if cfg.EarlyExaggeration <= 0 {
		cfg.EarlyExaggeration = 12
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &TSNE{cfg: cfg}
}

// Project implements Projector.
func (t *TSNE) Project(ctx context.Context, data *mat.Dense, perplexity float64) (*mat.Dense, error) {
	n, _ := data.Dims()
	if err := checkPerplexity(perplexity, n); err != nil {
		return nil, err
	}
	if n == 1 {
		return mat.NewDense(1, 2, nil), nil
	}

	p := jointProbabilities(vector.SquaredDistances(data), perplexity)
	y := t.initialEmbedding(data)

	learningRate := t.cfg.LearningRate
	if learningRate <= 0 {
		learningRate = math.Max(float64(n)/t.cfg.EarlyExaggeration/4, 50)
	}

	opt := newOptimizer(n, learningRate)

	floats.Scale(t.cfg.EarlyExaggeration, p)
	for it := 0; it < t.cfg.ExplorationIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opt.step(p, y, 0.5) {
			break
		}
	}
	floats.Scale(1/t.cfg.EarlyExaggeration, p)

	for it := t.cfg.ExplorationIterations; it < t.cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opt.step(p, y, 0.8) {
			break
		}
	}

	return mat.NewDense(n, 2, y), nil
}

// initialEmbedding returns the flattened n×2 starting layout: the first two
// principal components scaled so the first has standard deviation 1e-4, or
// small Gaussian noise when PCA is not possible.
func (t *TSNE) initialEmbedding(data *mat.Dense) []float64 {
	n, _ := data.Dims()
	if proj, err := principalComponents(data, 2); err == nil {
		sd := stat.StdDev(mat.Col(nil, 0, proj), nil)
		if sd > 0 && !math.IsNaN(sd) {
			y := make([]float64, 0, 2*n)
			for i := 0; i < n; i++ {
				y = append(y, proj.At(i, 0)/sd*1e-4, proj.At(i, 1)/sd*1e-4)
			}
			return y
		}
	}

	y := make([]float64, 2*n)
	for i := range y {
		y[i] = t.cfg.Rand.NormFloat64() * 1e-4
	}
	return y
}

// jointProbabilities computes the symmetric affinity matrix P (flattened,
// row-major) whose conditional rows each match the target perplexity.
func jointProbabilities(dist *mat.SymDense, perplexity float64) []float64 {
	n := dist.SymmetricDim()
	cond := make([]float64, n*n)
	desired := math.Log(perplexity)

	row := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row[j] = dist.At(i, j)
		}
		conditionalRow(row, i, desired, cond[i*n:(i+1)*n])
	}

	p := make([]float64, n*n)
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := cond[i*n+j] + cond[j*n+i]
			p[i*n+j] = v
			sum += v
		}
	}
	sum = math.Max(sum, machineEpsilon)
	for i := range p {
		p[i] = math.Max(p[i]/sum, machineEpsilon)
	}
	for i := 0; i < n; i++ {
		p[i*n+i] = 0
	}
	return p
}

// conditionalRow binary-searches the Gaussian precision for point i so the
// entropy of its neighbor distribution equals desired (in nats).
func conditionalRow(dist []float64, i int, desired float64, out []float64) {
	beta := 1.0
	betaMin := math.Inf(-1)
	betaMax := math.Inf(1)

	for step := 0; step < maxSearchSteps; step++ {
		var sumP float64
		for j, d := range dist {
			if j == i {
				out[j] = 0
				continue
			}
			out[j] = math.Exp(-d * beta)
			sumP += out[j]
		}
		if sumP == 0 {
			sumP = 1e-8
		}

		var sumDistP float64
		for j, d := range dist {
			out[j] /= sumP
			sumDistP += d * out[j]
		}

		entropy := math.Log(sumP) + beta*sumDistP
		diff := entropy - desired
		if math.Abs(diff) <= entropyTolerance {
			return
		}

		if diff > 0 {
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			betaMax = beta
			if math.IsInf(betaMin, -1) {
				beta /= 2
			} else {
				beta = (beta + betaMin) / 2
			}
		}
	}
}

// optimizer carries the momentum and per-parameter gain state of the
// gradient descent.
type optimizer struct {
	n            int
	learningRate float64
	update       []float64
	gains        []float64
	grad         []float64
	num          []float64
}

func newOptimizer(n int, learningRate float64) *optimizer {
	o := &optimizer{
		n:            n,
		learningRate: learningRate,
		update:       make([]float64, 2*n),
		gains:        make([]float64, 2*n),
		grad:         make([]float64, 2*n),
		num:          make([]float64, n*n),
	}
	for i := range o.gains {
		o.gains[i] = 1
	}
	return o
}

// step applies one momentum update to y and reports whether the gradient
// norm fell below the convergence threshold.
func (o *optimizer) step(p, y []float64, momentum float64) bool {
	o.gradient(p, y)
	if floats.Norm(o.grad, 2) <= minGradNorm {
		return true
	}

	for k := range y {
		if o.update[k]*o.grad[k] < 0 {
			o.gains[k] += 0.2
		} else {
			o.gains[k] *= 0.8
		}
		if o.gains[k] < minGain {
			o.gains[k] = minGain
		}
		o.update[k] = momentum*o.update[k] - o.learningRate*o.gains[k]*o.grad[k]
		y[k] += o.update[k]
	}
	return false
}

// gradient fills o.grad with the KL-divergence gradient under a Student-t
// kernel with one degree of freedom.
func (o *optimizer) gradient(p, y []float64) {
	n := o.n
	var sumNum float64
	for i := 0; i < n; i++ {
		o.num[i*n+i] = 0
		for j := i + 1; j < n; j++ {
			dx := y[2*i] - y[2*j]
			dy := y[2*i+1] - y[2*j+1]
			v := 1 / (1 + dx*dx + dy*dy)
			o.num[i*n+j] = v
			o.num[j*n+i] = v
			sumNum += 2 * v
		}
	}
	sumNum = math.Max(sumNum, machineEpsilon)

	for k := range o.grad {
		o.grad[k] = 0
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			q := math.Max(o.num[i*n+j]/sumNum, machineEpsilon)
			mult := (p[i*n+j] - q) * o.num[i*n+j]
			o.grad[2*i] += mult * (y[2*i] - y[2*j])
			o.grad[2*i+1] += mult * (y[2*i+1] - y[2*j+1])
		}
	}
	floats.Scale(4, o.grad)
}
