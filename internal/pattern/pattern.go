// SPDX-License-Identifier: MIT
/*
Package pattern maps (layout, elapsed time, audio snapshot) to per-light
visual output. Patterns form a closed set of 18 named steppers in two
families: time-driven patterns derive everything from elapsed time and the
layout, audio-driven patterns follow the band energies and beat pulses from
the analyzer. Switching patterns discards the outgoing pattern's state.
*/
package pattern

import (
	"errors"
	"fmt"
	"math"
	"time"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/layout"
)

// ErrUnknown is returned when a pattern name is not one of the known
// identifiers. Callers reject bad names at the boundary; the engine never
// sees one.
var ErrUnknown = errors.New("unknown pattern")

// Name identifies one of the known patterns.
type Name int

const (
	Chase Name = iota
	ChaseReverse
	Swirl
	FrontToBack
	BackToFront
	LeftOff
	RightOff
	LeftRightAlt
	CenterOut
	ZoneMix
	Breathing
	AllOn
	UpperBass
	BassFlood
	TrebleHue
	BandSplit
	MusicColor
	BeatHue
)

var names = [...]string{
	"chase", "chase_reverse", "swirl", "front_to_back", "back_to_front",
	"left_off", "right_off", "left_right_alt", "center_out", "zone_mix",
	"breathing", "all_on",
	"upper_bass", "bass_flood", "treble_hue", "band_split", "music_color",
	"beat_hue",
}

func (n Name) String() string {
	if int(n) < 0 || int(n) >= len(names) {
		return "unknown"
	}
	return names[n]
}

// AudioDriven reports whether the pattern derives its output primarily from
// the audio snapshot.
func (n Name) AudioDriven() bool {
	return n >= UpperBass
}

// Parse converts a pattern name to its identifier. Unknown names return
// ErrUnknown.
func Parse(s string) (Name, error) {
	for i, name := range names {
		if s == name {
			return Name(i), nil
		}
	}
	return Chase, fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Names returns all pattern names in declaration order.
func Names() []string {
	return names[:]
}

// Frame is one light's visual output for one tick. Channels and intensity
// are clamped to [0,1] by the engine before anyone else sees them; Yaw is in
// degrees and only forwarded when rotation is enabled.
type Frame struct {
	Color     RGB
	Intensity float64
	Yaw       float64
}

// stepper is one pattern instance. Step fills out (len = layout total) for
// the given elapsed time and audio snapshot. Steppers are created fresh on
// every switch, so any state they carry starts clean.
type stepper interface {
	step(snap analysis.Snapshot, t float64, out []Frame)
}

// Engine owns the active pattern and its state.
type Engine struct {
	layout *layout.Layout
	cfg    config.PatternConfig

	active  Name
	stepper stepper
	frames  []Frame
}

// NewEngine creates a pattern engine with the given initial pattern.
func NewEngine(l *layout.Layout, cfg config.PatternConfig, initial Name) *Engine {
	e := &Engine{
		layout: l,
		cfg:    cfg,
		frames: make([]Frame, l.Total()),
	}
	e.Switch(initial)
	return e
}

// Active returns the current pattern.
func (e *Engine) Active() Name {
	return e.active
}

// Switch replaces the active pattern. The previous pattern's state is
// discarded; the new pattern takes effect on the next Step call.
func (e *Engine) Switch(name Name) {
	e.active = name
	e.stepper = newStepper(name, e.layout, e.cfg)
}

// Step evaluates the active pattern at the given elapsed time. All outputs
// are clamped to [0,1]. The returned slice is reused between calls; callers
// must consume it before the next Step.
func (e *Engine) Step(snap analysis.Snapshot, elapsed time.Duration) []Frame {
	t := elapsed.Seconds()

	for i := range e.frames {
		e.frames[i] = Frame{}
	}
	e.stepper.step(snap, t, e.frames)

	// Optional whole-rig yaw rotation, sped up by bass when configured.
	if e.cfg.RotationEnabled {
		speed := e.cfg.RotationSpeed
		if e.cfg.RotationAudioBoost {
			speed *= 1 + snap.Low
		}
		yaw := math.Mod(t*speed, 360)
		for i := range e.frames {
			e.frames[i].Yaw = math.Mod(e.frames[i].Yaw+yaw, 360)
		}
	}

	for i := range e.frames {
		f := &e.frames[i]
		f.Color.R = clamp01(f.Color.R)
		f.Color.G = clamp01(f.Color.G)
		f.Color.B = clamp01(f.Color.B)
		f.Intensity = clamp01(f.Intensity)
	}

	return e.frames
}

// newStepper builds a fresh pattern instance. Every Name has a stepper; the
// switch is exhaustive over the closed set.
func newStepper(name Name, l *layout.Layout, cfg config.PatternConfig) stepper {
	switch name {
	case Chase:
		return &chaseStepper{layout: l, tail: cfg.ChaseTail}
	case ChaseReverse:
		return &chaseStepper{layout: l, tail: cfg.ChaseTail, reverse: true}
	case Swirl:
		return newSwirlStepper(l, cfg.ChaseTail)
	case FrontToBack:
		return &waveStepper{layout: l, order: frontOrder}
	case BackToFront:
		return &waveStepper{layout: l, order: backOrder}
	case LeftOff:
		return &zoneOffStepper{layout: l, off: layout.Left}
	case RightOff:
		return &zoneOffStepper{layout: l, off: layout.Right}
	case LeftRightAlt:
		return &leftRightAltStepper{layout: l}
	case CenterOut:
		return newCenterOutStepper(l)
	case ZoneMix:
		return newZoneMixStepper(l)
	case Breathing:
		return &breathingStepper{layout: l}
	case AllOn:
		return &allOnStepper{layout: l}
	case UpperBass:
		return &upperBassStepper{layout: l, hueScale: cfg.HueScale}
	case BassFlood:
		return &bassFloodStepper{layout: l, hueScale: cfg.HueScale}
	case TrebleHue:
		return &trebleHueStepper{layout: l}
	case BandSplit:
		return &bandSplitStepper{layout: l}
	case MusicColor:
		return &musicColorStepper{layout: l, hueScale: cfg.HueScale}
	case BeatHue:
		return &beatHueStepper{layout: l}
	default:
		return &allOnStepper{layout: l}
	}
}
