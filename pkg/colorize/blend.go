package colorize

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// truncationSlack absorbs Lab round-trip noise so a channel that is exactly
// k/255 does not truncate to k-1.
const truncationSlack = 1e-6

type lab struct {
	L, A, B float64
}

func toLab(colors []colorful.Color) []lab {
	out := make([]lab, len(colors))
	for i, c := range colors {
		l, a, b := c.Lab()
		out[i] = lab{l, a, b}
	}
	return out
}

func blendLab(anchors []lab, weights []float64) colorful.Color {
	var mixed lab
	for i, w := range weights {
		mixed.L += w * anchors[i].L
		mixed.A += w * anchors[i].A
		mixed.B += w * anchors[i].B
	}
	return colorful.Lab(mixed.L, mixed.A, mixed.B).Clamped()
}

// Blend mixes colors in CIELab (D65) using weights and converts the result
// back to sRGB, clamped to the gamut. len(weights) must equal len(colors).
func Blend(colors []colorful.Color, weights []float64) colorful.Color {
	return blendLab(toLab(colors), weights)
}

// HexColor encodes c as #rrggbb, truncating each 0–255 scaled channel.
func HexColor(c colorful.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	n := int(math.Floor(v*255 + truncationSlack))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
