// SPDX-License-Identifier: MIT
package analysis

import "time"

// quietFloor is the minimum baseline the rolling average is compared at.
const quietFloor = 0.02

// BeatDetector flags a pulse when the low-band energy spikes above its
// short-term rolling average. A refractory interval rate-limits pulses so one
// sustained transient cannot double-trigger.
type BeatDetector struct {
	threshold  float64       // Multiplier over the rolling average.
	refractory time.Duration // Minimum interval between pulses.
	avgAlpha   float64       // EMA coefficient for the rolling average.

	average  float64
	primed   bool
	lastBeat time.Time
}

// NewBeatDetector creates a detector. frameInterval is the time between
// analysis frames; the rolling average spans roughly one second of frames.
func NewBeatDetector(threshold float64, refractory time.Duration, frameInterval float64) *BeatDetector {
	avgAlpha := frameInterval // tau = 1s: alpha ~= dt/tau for small dt
	if avgAlpha > 1 {
		avgAlpha = 1
	}
	return &BeatDetector{
		threshold:  threshold,
		refractory: refractory,
		avgAlpha:   avgAlpha,
	}
}

// Detect consumes one frame's normalized low-band energy and reports whether
// a beat pulse fires. The rolling average is primed to the first observed
// energy so the very first frame cannot trigger.
func (d *BeatDetector) Detect(lowEnergy float64, now time.Time) bool {
	if !d.primed {
		d.average = lowEnergy
		d.primed = true
		return false
	}

	// A floor under the average keeps noise from triggering during quiet
	// passages, where a multiplicative threshold over ~0 is degenerate.
	baseline := d.average
	if baseline < quietFloor {
		baseline = quietFloor
	}

	fired := false
	if lowEnergy > baseline*d.threshold &&
		(d.lastBeat.IsZero() || now.Sub(d.lastBeat) >= d.refractory) {
		fired = true
		d.lastBeat = now
	}

	// Update the average after the comparison so the spike itself does not
	// mask its own detection.
	d.average += d.avgAlpha * (lowEnergy - d.average)

	return fired
}
