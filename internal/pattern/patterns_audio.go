// SPDX-License-Identifier: MIT
package pattern

import (
	"auralight/internal/analysis"
	"auralight/internal/layout"
)

// isSilence reports whether the snapshot is the silence fallback (no audio
// source, or the source went quiet past its timeout). Audio-driven patterns
// use it to pick their neutral idle look instead of rendering on zeros.
func isSilence(snap analysis.Snapshot) bool {
	return snap.Time.IsZero()
}

// dimFloor keeps audio-driven patterns from blacking out between transients.
const dimFloor = 0.1

// upperBassStepper drives the top zone from bass energy; the rest of the rig
// holds a dim floor. Idle look: everything at the floor.
type upperBassStepper struct {
	layout   *layout.Layout
	hueScale float64
}

func (u *upperBassStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	topColor := energyColor(snap.Low, 0, u.hueScale)
	if isSilence(snap) {
		topColor = baseColor
	}

	for _, light := range u.layout.Lights() {
		i := light.GlobalIndex
		if light.Zone == layout.Top {
			out[i].Color = topColor
			out[i].Intensity = dimFloor + (1-dimFloor)*snap.Low
		} else {
			out[i].Color = baseColor
			out[i].Intensity = dimFloor
		}
	}
}

// bassFloodStepper washes the whole rig with bass energy; hue reddens as the
// bass rises. Idle look: dim warm floor.
type bassFloodStepper struct {
	layout   *layout.Layout
	hueScale float64
}

func (b *bassFloodStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	color := energyColor(snap.Low, 0, b.hueScale)
	if isSilence(snap) {
		color = baseColor
	}
	level := dimFloor + (1-dimFloor)*snap.Low

	for i := range out {
		out[i].Color = color
		out[i].Intensity = level
	}
}

// trebleHueStepper sweeps hue with high-band energy and follows overall
// loudness for intensity. Idle look: dim red.
type trebleHueStepper struct {
	layout *layout.Layout
}

func (s *trebleHueStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	// Full hue circle: 0 energy = red, 1 = back around to red.
	color := hsv(snap.High, 0.9, 0.3+0.7*snap.Overall)
	level := 0.2 + 0.8*snap.Overall

	for i := range out {
		out[i].Color = color
		out[i].Intensity = level
	}
}

// bandSplitStepper splits the bands: intensity follows the low band, hue
// follows the high band swept across the hue circle. Idle look: dim red
// floor.
type bandSplitStepper struct {
	layout *layout.Layout
}

func (s *bandSplitStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	color := hsv(snap.High, 0.9, 1)
	level := dimFloor + (1-dimFloor)*snap.Low

	for i := range out {
		out[i].Color = color
		out[i].Intensity = level
	}
}

// musicColorStepper is the flagship reactive look: base hue drifts with
// overall loudness, color tracks the mid band, intensity rides overall. Idle
// look: warm base color at half intensity.
type musicColorStepper struct {
	layout   *layout.Layout
	hueScale float64
}

func (m *musicColorStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	color := baseColor
	if !isSilence(snap) {
		color = energyColor(snap.Mid, snap.Overall*0.5, m.hueScale)
	}
	level := 0.5 + 0.5*snap.Overall

	for i := range out {
		out[i].Color = color
		out[i].Intensity = level
	}
}

// goldenStep advances hue by the golden-angle fraction per beat, which keeps
// consecutive beat colors far apart without repeating quickly.
const goldenStep = 0.381966

// beatHueStepper jumps to a new hue on every beat pulse and tracks bass
// energy for intensity between pulses. Idle look: steady first hue at the
// floor.
type beatHueStepper struct {
	layout *layout.Layout
	hue    float64
}

func (b *beatHueStepper) step(snap analysis.Snapshot, _ float64, out []Frame) {
	if snap.Beat {
		b.hue += goldenStep
		if b.hue >= 1 {
			b.hue -= 1
		}
	}

	color := hsv(b.hue, 0.9, 1)
	level := 0.15 + 0.85*snap.Low

	for i := range out {
		out[i].Color = color
		out[i].Intensity = level
	}
}
