package algorithms

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// candidate is an undirected edge normalised so lo < hi.
type candidate struct {
	lo, hi int64
	weight float64
}

// less orders candidates by weight, then by (lo, hi), so equal weights
// resolve the same way on every run.
func (c candidate) less(o candidate) bool {
	if c.weight != o.weight {
		return c.weight < o.weight
	}
	if c.lo != o.lo {
		return c.lo < o.lo
	}
	return c.hi < o.hi
}

// MinimumSpanningTree runs Kruskal's algorithm over g and returns the
// accepted edges in acceptance order, each oriented from the lower node ID
// to the higher. A disconnected g yields a spanning forest.
func MinimumSpanningTree(g graph.WeightedUndirected) []graph.WeightedEdge {
	nodes := graph.NodesOf(g.Nodes())
	if len(nodes) < 2 {
		return nil
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		index[n.ID()] = i
	}

	var candidates []candidate
	for _, u := range nodes {
		to := g.From(u.ID())
		for to.Next() {
			v := to.Node()
			if v.ID() <= u.ID() {
				continue
			}
			w, ok := g.Weight(u.ID(), v.ID())
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{lo: u.ID(), hi: v.ID(), weight: w})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].less(candidates[j]) })

	uf := NewUnionFind(len(nodes))
	tree := make([]graph.WeightedEdge, 0, len(nodes)-1)
	for _, c := range candidates {
		if !uf.Union(index[c.lo], index[c.hi]) {
			continue
		}
		tree = append(tree, simple.WeightedEdge{
			F: g.Node(c.lo),
			T: g.Node(c.hi),
			W: c.weight,
		})
		if uf.Sets() == 1 {
			break
		}
	}
	return tree
}

// TotalWeight sums the weights of edges.
func TotalWeight(edges []graph.WeightedEdge) float64 {
	var total float64
	for _, e := range edges {
		total += e.Weight()
	}
	return total
}
