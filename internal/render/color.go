package render

import (
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Lightness bounds for entry colors.
const (
	LightnessLower = 0.5
	LightnessUpper = 0.9
)

// RandomColor returns a fully saturated color with a random hue and a
// lightness in [lower, upper).
func RandomColor(rng *rand.Rand, lower, upper float64) colorful.Color {
	if upper < lower {
		lower, upper = upper, lower
	}
	h := rng.Float64() * 360
	l := lower + rng.Float64()*(upper-lower)
	return colorful.Hsl(h, 1, l).Clamped()
}
