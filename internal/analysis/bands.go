// SPDX-License-Identifier: MIT
package analysis

import "math"

// normFloor keeps the running-max normalizer away from division by zero on
// silent input.
const normFloor = 1e-6

// band is one contiguous frequency range with its resolved bin span.
type band struct {
	lowHz, highHz   float64
	lowBin, highBin int // [lowBin, highBin)
	runningMax      float64
	smoothed        float64
}

// BandConfig describes the three spectral ranges and the smoothing behavior.
type BandConfig struct {
	LowMinHz, LowMaxHz, MidMaxHz, HighMaxHz float64

	// NormDecay is the running-max decay time constant in seconds. The
	// normalizer adapts to track and volume changes without hard resets, so
	// quiet passages do not re-baseline it.
	NormDecay float64

	// Attack and Decay are the smoothing time constants in seconds. Attack
	// applies on rising energy (fast), Decay on falling (slower), which keeps
	// the output responsive without per-frame flicker.
	Attack, Decay float64
}

// BandExtractor reduces a magnitude spectrum to normalized, smoothed
// low/mid/high/overall energies in [0,1].
type BandExtractor struct {
	bands         [4]band // low, mid, high, overall
	decayPerFrame float64
	attackAlpha   float64
	decayAlpha    float64
}

// NewBandExtractor resolves the configured Hz boundaries against the FFT bin
// grid. frameInterval is the time between analysis frames (hop / sampleRate),
// which fixes the per-frame decay and smoothing coefficients.
func NewBandExtractor(cfg BandConfig, spec *Spectrum, frameInterval float64) *BandExtractor {
	e := &BandExtractor{
		bands: [4]band{
			{lowHz: cfg.LowMinHz, highHz: cfg.LowMaxHz},
			{lowHz: cfg.LowMaxHz, highHz: cfg.MidMaxHz},
			{lowHz: cfg.MidMaxHz, highHz: cfg.HighMaxHz},
			{lowHz: cfg.LowMinHz, highHz: cfg.HighMaxHz}, // overall
		},
		decayPerFrame: math.Exp(-frameInterval / cfg.NormDecay),
		attackAlpha:   1 - math.Exp(-frameInterval/cfg.Attack),
		decayAlpha:    1 - math.Exp(-frameInterval/cfg.Decay),
	}

	binWidth := spec.BinFrequency(1)
	for i := range e.bands {
		b := &e.bands[i]
		b.lowBin = int(b.lowHz / binWidth)
		b.highBin = int(b.highHz/binWidth) + 1
		if b.lowBin < 0 {
			b.lowBin = 0
		}
		if b.highBin > spec.Bins() {
			b.highBin = spec.Bins()
		}
		if b.highBin <= b.lowBin {
			b.highBin = b.lowBin + 1
		}
	}

	return e
}

// Bands holds one frame of extracted band energies.
type Bands struct {
	Low, Mid, High, Overall float64
}

// Process reduces the magnitude spectrum to band energies. Each band is
// averaged over its bins, normalized against its slowly-decaying running
// maximum, and smoothed with the asymmetric attack/decay filter.
func (e *BandExtractor) Process(magnitudes []float64) Bands {
	var out [4]float64
	for i := range e.bands {
		b := &e.bands[i]

		raw := 0.0
		hi := b.highBin
		if hi > len(magnitudes) {
			hi = len(magnitudes)
		}
		for bin := b.lowBin; bin < hi; bin++ {
			raw += magnitudes[bin]
		}
		if n := hi - b.lowBin; n > 0 {
			raw /= float64(n)
		}

		// Running max decays toward zero so the normalizer tracks level
		// changes; the floor avoids blowing up on silence.
		b.runningMax *= e.decayPerFrame
		if raw > b.runningMax {
			b.runningMax = raw
		}
		norm := raw / math.Max(b.runningMax, normFloor)
		if norm > 1 {
			norm = 1
		}

		// Fast rise, slow fall.
		alpha := e.decayAlpha
		if norm > b.smoothed {
			alpha = e.attackAlpha
		}
		b.smoothed += alpha * (norm - b.smoothed)

		out[i] = b.smoothed
	}

	return Bands{Low: out[0], Mid: out[1], High: out[2], Overall: out[3]}
}

// RawLow returns the normalized (pre-smoothing) low-band value from the last
// Process call, which the beat detector prefers: smoothing blunts exactly the
// transients it is looking for.
func (e *BandExtractor) RawLow(magnitudes []float64) float64 {
	b := &e.bands[0]
	raw := 0.0
	hi := b.highBin
	if hi > len(magnitudes) {
		hi = len(magnitudes)
	}
	for bin := b.lowBin; bin < hi; bin++ {
		raw += magnitudes[bin]
	}
	if n := hi - b.lowBin; n > 0 {
		raw /= float64(n)
	}
	return raw / math.Max(b.runningMax, normFloor)
}
