// Package colorize assigns every genre point a display color blended from a
// small set of anchor genres, weighted by 2D proximity.
package colorize

import (
	"fmt"
	"math/rand"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
)

// DefaultSmoothing sharpens membership toward the nearest anchor with a cubic
// fall-off.
const DefaultSmoothing = 3.0

// Options configures AssignColors.
type Options struct {
	// Smoothing is the distance exponent; it must be positive.
	Smoothing float64
	// Rand drives the anchor color permutation. Nil means time-seeded.
	Rand *rand.Rand
	// Palette overrides Tab20.
	Palette []colorful.Color
}

// Assignment is the outcome of AssignColors, including the intermediate
// per-anchor colors and weights.
type Assignment struct {
	Points       []genre.ColoredPoint
	Anchors      []genre.Point
	AnchorColors []colorful.Color
	Weights      [][]float64
}

// AssignColors colors every point by blending anchor colors with soft
// inverse-distance weights. Anchors are matched by name, in the given order.
func AssignColors(points []genre.Point, anchors []string, opts Options) ([]genre.ColoredPoint, error) {
	a, err := Assign(points, anchors, opts)
	if err != nil {
		return nil, err
	}
	return a.Points, nil
}

// Assign is AssignColors returning the full Assignment.
func Assign(points []genre.Point, anchors []string, opts Options) (*Assignment, error) {
	if opts.Smoothing <= 0 {
		return nil, fmt.Errorf("%w: smoothing must be positive, got %v", genre.ErrConfiguration, opts.Smoothing)
	}
	centers, err := selectCenters(points, anchors)
	if err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	colors := SoftPalette(len(centers), opts.Palette)
	Shuffle(colors, rng)

	weights := SoftWeights(points, centers, opts.Smoothing)
	anchorLab := toLab(colors)

	colored := make([]genre.ColoredPoint, len(points))
	for i, p := range points {
		colored[i] = genre.ColoredPoint{
			X:     p.X,
			Y:     p.Y,
			Name:  p.Name,
			Color: HexColor(blendLab(anchorLab, weights[i])),
			ID:    p.ID,
		}
	}

	return &Assignment{
		Points:       colored,
		Anchors:      centers,
		AnchorColors: colors,
		Weights:      weights,
	}, nil
}

// selectCenters resolves anchor names to points, keeping anchor order.
func selectCenters(points []genre.Point, anchors []string) ([]genre.Point, error) {
	if len(anchors) == 0 {
		return nil, fmt.Errorf("%w: at least one anchor genre is required", genre.ErrConfiguration)
	}

	byName := make(map[string]int, len(points))
	for i, p := range points {
		if _, seen := byName[p.Name]; !seen {
			byName[p.Name] = i
		}
	}

	centers := make([]genre.Point, 0, len(anchors))
	used := make(map[string]bool, len(anchors))
	for _, name := range anchors {
		if used[name] {
			return nil, fmt.Errorf("%w: duplicate anchor %q", genre.ErrConfiguration, name)
		}
		used[name] = true

		idx, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", genre.ErrAnchorNotFound, name)
		}
		centers = append(centers, points[idx])
	}
	return centers, nil
}
