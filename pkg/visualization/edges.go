// Package visualization turns colored genre points into the drawable
// spanning-tree edges of the genre map.
package visualization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/dd0wney/cluso-genremap/pkg/algorithms"
	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

// SpanningTreeFunc extracts a minimum spanning tree from a weighted
// undirected graph. Returned edges must be oriented low ID to high ID.
type SpanningTreeFunc func(g graph.WeightedUndirected) []graph.WeightedEdge

// EdgeBuilder connects colored points with a minimum spanning tree over
// their pairwise Euclidean distances.
type EdgeBuilder struct {
	spanningTree SpanningTreeFunc
}

// NewEdgeBuilder creates an EdgeBuilder. A nil solver selects
// algorithms.MinimumSpanningTree.
func NewEdgeBuilder(solver SpanningTreeFunc) *EdgeBuilder {
	if solver == nil {
		solver = algorithms.MinimumSpanningTree
	}
	return &EdgeBuilder{spanningTree: solver}
}

// BuildEdges builds the map edges with the default solver.
func BuildEdges(points []genre.ColoredPoint) ([]genre.Edge, error) {
	return NewEdgeBuilder(nil).Build(points)
}

// Build returns one edge per spanning-tree edge, in the order the solver
// accepted them. Each edge takes the color of its lower-index endpoint.
func (b *EdgeBuilder) Build(points []genre.ColoredPoint) ([]genre.Edge, error) {
	edges, _, err := b.BuildTree(points)
	return edges, err
}

// BuildTree is Build that also reports the total length of the tree.
func (b *EdgeBuilder) BuildTree(points []genre.ColoredPoint) ([]genre.Edge, float64, error) {
	if len(points) < 2 {
		return nil, 0, fmt.Errorf("%w: need at least 2 points for a spanning tree, got %d", genre.ErrGraph, len(points))
	}

	tree := b.spanningTree(CompleteGraph(points))
	if len(tree) != len(points)-1 {
		return nil, 0, fmt.Errorf("%w: spanning tree has %d edges, want %d", genre.ErrGraph, len(tree), len(points)-1)
	}

	edges := make([]genre.Edge, 0, len(tree))
	for _, e := range tree {
		from, to := e.From().ID(), e.To().ID()
		if from > to {
			from, to = to, from
		}
		if from < 0 || to >= int64(len(points)) {
			return nil, 0, fmt.Errorf("%w: edge %d-%d out of range", genre.ErrGraph, from, to)
		}
		src, dst := points[from], points[to]
		edges = append(edges, genre.Edge{
			Source: genre.Coordinate{X: src.X, Y: src.Y},
			Target: genre.Coordinate{X: dst.X, Y: dst.Y},
			Color:  src.Color,
		})
	}
	return edges, algorithms.TotalWeight(tree), nil
}

// CompleteGraph returns the complete graph over points, node i standing for
// points[i] and every edge weighted by Euclidean distance. It has O(n²)
// edges.
func CompleteGraph(points []genre.ColoredPoint) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range points {
		g.AddNode(simple.Node(i))
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			d := math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y)
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), d))
		}
	}
	return g
}
