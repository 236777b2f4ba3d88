// SPDX-License-Identifier: MIT
package pattern

import "math"

// RGB is a color with channels in [0,1], the representation the transport
// expects.
type RGB struct {
	R, G, B float64
}

// baseColor is the neutral warm look used by non-reactive patterns and as the
// idle fallback when the audio snapshot is silence.
var baseColor = RGB{R: 1, G: 0.5, B: 0.2}

// energyHue maps a normalized energy to a hue in [0,1). scale controls how
// far across the hue circle full energy sweeps.
func energyHue(energy, base, scale float64) float64 {
	h := math.Mod(base+energy*scale, 1)
	if h < 0 {
		h += 1
	}
	return h
}

// hsv converts hue/saturation/value (hue in [0,1)) to RGB using the standard
// sextant conversion.
func hsv(hue, sat, val float64) RGB {
	h := hue * 6
	i := int(h) % 6
	if i < 0 {
		i += 6
	}
	f := h - math.Floor(h)
	p := val * (1 - sat)
	q := val * (1 - sat*f)
	t := val * (1 - sat*(1-f))

	switch i {
	case 0:
		return RGB{val, t, p}
	case 1:
		return RGB{q, val, p}
	case 2:
		return RGB{p, val, t}
	case 3:
		return RGB{p, q, val}
	case 4:
		return RGB{t, p, val}
	default:
		return RGB{val, p, q}
	}
}

// energyColor maps energy to a color for lighting: hue swept from the base,
// fixed high saturation, value rising with energy so quiet passages dim
// rather than blacking out.
func energyColor(energy, baseHue, hueScale float64) RGB {
	return hsv(energyHue(energy, baseHue, hueScale), 0.9, 0.3+0.7*energy)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*clamp01(t)
}
