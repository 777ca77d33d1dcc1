package colorize

import (
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Softening strengths applied by SoftPalette.
const (
	DefaultSoftening  = 0.01
	OrangeSoftening   = 0.4
	reservedTolerance = 0.01
)

func rgb8(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Tab20 is the 20-color qualitative palette anchors draw from, in order.
var Tab20 = []colorful.Color{
	rgb8(0x1f, 0x77, 0xb4), rgb8(0xae, 0xc7, 0xe8),
	rgb8(0xff, 0x7f, 0x0e), rgb8(0xff, 0xbb, 0x78),
	rgb8(0x2c, 0xa0, 0x2c), rgb8(0x98, 0xdf, 0x8a),
	rgb8(0xd6, 0x27, 0x28), rgb8(0xff, 0x98, 0x96),
	rgb8(0x94, 0x67, 0xbd), rgb8(0xc5, 0xb0, 0xd5),
	rgb8(0x8c, 0x56, 0x4b), rgb8(0xc4, 0x9c, 0x94),
	rgb8(0xe3, 0x77, 0xc2), rgb8(0xf7, 0xb6, 0xd2),
	rgb8(0x7f, 0x7f, 0x7f), rgb8(0xc7, 0xc7, 0xc7),
	rgb8(0xbc, 0xbd, 0x22), rgb8(0xdb, 0xdb, 0x8d),
	rgb8(0x17, 0xbe, 0xcf), rgb8(0x9e, 0xda, 0xe5),
}

// ReservedOrange is the saturated palette tone that gets softened harder so
// it does not dominate the map.
var ReservedOrange = colorful.Color{R: 1.0, G: 0.498, B: 0.054}

// Soften blends c toward white by strength in [0, 1].
func Soften(c colorful.Color, strength float64) colorful.Color {
	return colorful.Color{
		R: c.R*(1-strength) + strength,
		G: c.G*(1-strength) + strength,
		B: c.B*(1-strength) + strength,
	}.Clamped()
}

func isReserved(c colorful.Color) bool {
	return math.Abs(c.R-ReservedOrange.R) <= reservedTolerance &&
		math.Abs(c.G-ReservedOrange.G) <= reservedTolerance &&
		math.Abs(c.B-ReservedOrange.B) <= reservedTolerance
}

// SoftPalette returns n softened colors taken from palette in order, cycling
// when n exceeds its length.
func SoftPalette(n int, palette []colorful.Color) []colorful.Color {
	if len(palette) == 0 {
		palette = Tab20
	}
	out := make([]colorful.Color, n)
	for i := range out {
		base := palette[i%len(palette)]
		strength := DefaultSoftening
		if isReserved(base) {
			strength = OrangeSoftening
		}
		out[i] = Soften(base, strength)
	}
	return out
}

// Shuffle permutes colors in place so palette adjacency does not follow
// anchor order.
func Shuffle(colors []colorful.Color, rng *rand.Rand) {
	rng.Shuffle(len(colors), func(i, j int) {
		colors[i], colors[j] = colors[j], colors[i]
	})
}
