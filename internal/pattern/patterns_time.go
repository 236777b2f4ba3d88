// SPDX-License-Identifier: MIT
package pattern

import (
	"math"

	"auralight/internal/analysis"
	"auralight/internal/layout"
)

// Timing constants for the time-driven patterns. These are visual tuning,
// not protocol values.
const (
	chaseStepSeconds = 0.1 // Head advance interval.
	waveCycleSeconds = 2.0 // Full wave sweep.
	breathSeconds    = 4.0 // Breathing period.
	altSeconds       = 1.0 // Left/right alternation interval.
	centerOutSeconds = 2.0 // Expansion cycle.
	zoneMixSeconds   = 14.0
)

// chaseStepper runs a window of tail consecutive lights around the global
// ordering, dimming from head to tail. The head advances one light per fixed
// interval and wraps modulo the light count; reverse walks the other way.
type chaseStepper struct {
	layout  *layout.Layout
	tail    int
	reverse bool
}

func (c *chaseStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	n := len(out)
	if n == 0 {
		return
	}
	head := int(t/chaseStepSeconds) % n
	if c.reverse {
		head = (n - head) % n
	}

	for i := range out {
		var dist int
		if c.reverse {
			dist = (i - head + n) % n
		} else {
			dist = (head - i + n) % n
		}
		out[i].Color = baseColor
		if dist < c.tail {
			out[i].Intensity = 1 - float64(dist)/float64(c.tail)
		}
	}
}

// swirlStepper chases around the horizontal perimeter (front, right, back,
// left) with yaw tracking the head angle; top and bottom breathe softly.
type swirlStepper struct {
	layout    *layout.Layout
	tail      int
	perimeter []int // Global indices in perimeter order.
	perimPos  []int // Global index -> position on the perimeter, -1 if off it.
}

func newSwirlStepper(l *layout.Layout, tail int) *swirlStepper {
	s := &swirlStepper{
		layout:   l,
		tail:     tail,
		perimPos: make([]int, l.Total()),
	}
	for i := range s.perimPos {
		s.perimPos[i] = -1
	}

	// Front and right walk forward, back and left walk backward, which
	// keeps the motion circular instead of snapping at zone seams.
	collect := func(zone layout.Zone, reversed bool) {
		var zoneLights []int
		for _, light := range l.Lights() {
			if light.Zone == zone {
				zoneLights = append(zoneLights, light.GlobalIndex)
			}
		}
		if reversed {
			for i, j := 0, len(zoneLights)-1; i < j; i, j = i+1, j-1 {
				zoneLights[i], zoneLights[j] = zoneLights[j], zoneLights[i]
			}
		}
		s.perimeter = append(s.perimeter, zoneLights...)
	}
	collect(layout.Front, false)
	collect(layout.Right, false)
	collect(layout.Back, true)
	collect(layout.Left, true)

	for pos, gi := range s.perimeter {
		s.perimPos[gi] = pos
	}
	return s
}

func (s *swirlStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	n := len(s.perimeter)
	breath := 0.3 + 0.3*(0.5-0.5*math.Cos(2*math.Pi*t/breathSeconds))

	var head int
	if n > 0 {
		head = int(t/chaseStepSeconds) % n
	}

	for i := range out {
		out[i].Color = baseColor
		pos := s.perimPos[i]
		if pos < 0 {
			// Top/bottom ride along with a soft breathe.
			out[i].Intensity = breath
			continue
		}
		dist := (head - pos + n) % n
		if dist < s.tail {
			out[i].Intensity = 1 - float64(dist)/float64(s.tail)
		}
		out[i].Yaw = 360 * float64(head) / float64(n)
	}
}

// Zone orderings for the directional wave patterns.
var (
	frontOrder = [...]layout.Zone{layout.Front, layout.Left, layout.Right, layout.Back, layout.Top, layout.Bottom}
	backOrder  = [...]layout.Zone{layout.Back, layout.Left, layout.Right, layout.Front, layout.Top, layout.Bottom}
)

// waveStepper sweeps a wave across the rig following a zone ordering. Each
// light's wave coordinate mixes its zone's position in the order with its
// index within the zone.
type waveStepper struct {
	layout *layout.Layout
	order  [6]layout.Zone
}

func (w *waveStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	phase := math.Mod(t/waveCycleSeconds, 1)

	var orderIndex [6]int
	for i, z := range w.order {
		orderIndex[z] = i
	}

	for _, light := range w.layout.Lights() {
		zonePhase := float64(orderIndex[light.Zone]) / float64(len(w.order))
		within := float64(light.ZoneIndex) / math.Max(1, float64(light.ZoneCount))
		wavePos := math.Mod(zonePhase*0.5+within*0.5, 1)

		dist := math.Abs(wavePos - phase)
		if dist > 0.5 {
			dist = 1 - dist
		}
		out[light.GlobalIndex].Color = baseColor
		out[light.GlobalIndex].Intensity = math.Max(0, 1-dist*3)
	}
}

// zoneOffStepper darkens one zone and holds everything else at full.
type zoneOffStepper struct {
	layout *layout.Layout
	off    layout.Zone
}

func (z *zoneOffStepper) step(_ analysis.Snapshot, _ float64, out []Frame) {
	for _, light := range z.layout.Lights() {
		out[light.GlobalIndex].Color = baseColor
		if light.Zone != z.off {
			out[light.GlobalIndex].Intensity = 1
		}
	}
}

// leftRightAltStepper alternates the side zones every second; the remaining
// zones hold at half.
type leftRightAltStepper struct {
	layout *layout.Layout
}

func (a *leftRightAltStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	leftOn := int(t/altSeconds)%2 == 0

	for _, light := range a.layout.Lights() {
		out[light.GlobalIndex].Color = baseColor
		switch light.Zone {
		case layout.Left:
			if leftOn {
				out[light.GlobalIndex].Intensity = 1
			}
		case layout.Right:
			if !leftOn {
				out[light.GlobalIndex].Intensity = 1
			}
		default:
			out[light.GlobalIndex].Intensity = 0.5
		}
	}
}

// centerOutStepper lights each zone from its midpoint outward. The
// distance-from-center ranking is computed once from the layout.
type centerOutStepper struct {
	layout *layout.Layout
	rank   []float64 // Per light, normalized distance from zone center in [0,1].
}

func newCenterOutStepper(l *layout.Layout) *centerOutStepper {
	s := &centerOutStepper{
		layout: l,
		rank:   make([]float64, l.Total()),
	}
	for _, light := range l.Lights() {
		s.rank[light.GlobalIndex] = centerRank(light.ZoneIndex, light.ZoneCount)
	}
	return s
}

// centerRank returns the normalized distance of index i from the middle of a
// zone of count lights.
func centerRank(i, count int) float64 {
	if count <= 1 {
		return 0
	}
	mid := float64(count-1) / 2
	maxDist := math.Max(mid, float64(count-1)-mid)
	return math.Abs(float64(i)-mid) / maxDist
}

func (s *centerOutStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	radius := math.Mod(t/centerOutSeconds, 1)
	for i := range out {
		out[i].Color = baseColor
		out[i].Intensity = centerOutIntensity(s.rank[i], radius)
	}
}

func centerOutIntensity(rank, radius float64) float64 {
	if rank <= radius {
		return 1
	}
	return math.Max(0, 1-(rank-radius)*4)
}

// breathingStepper raises and lowers the whole rig on a raised cosine.
type breathingStepper struct {
	layout *layout.Layout
}

func (b *breathingStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	level := 0.5 - 0.5*math.Cos(2*math.Pi*t/breathSeconds)
	for i := range out {
		out[i].Color = baseColor
		out[i].Intensity = level
	}
}

// allOnStepper holds everything at full warm white.
type allOnStepper struct {
	layout *layout.Layout
}

func (a *allOnStepper) step(_ analysis.Snapshot, _ float64, out []Frame) {
	for i := range out {
		out[i].Color = baseColor
		out[i].Intensity = 1
	}
}

// Sub-patterns a zone can run inside zone_mix.
type subPattern int

const (
	subOff subPattern = iota
	subAllOn
	subBreathe
	subChase
	subCenterOut
)

// zoneMixAssignments are the fixed per-zone sub-pattern sets, indexed by
// zone in declaration order (left, right, front, back, top, bottom). The
// active set advances every cycle.
var zoneMixAssignments = [4][6]subPattern{
	{subChase, subChase, subBreathe, subBreathe, subAllOn, subOff},
	{subBreathe, subOff, subChase, subAllOn, subCenterOut, subBreathe},
	{subAllOn, subCenterOut, subOff, subChase, subBreathe, subChase},
	{subCenterOut, subBreathe, subAllOn, subOff, subChase, subAllOn},
}

// zoneMixStepper gives every zone its own sub-pattern and rotates the whole
// assignment set on a fixed cycle. The active set is a pure function of
// floor(t / cycle), so the change lands exactly on the boundary.
type zoneMixStepper struct {
	layout *layout.Layout
}

func newZoneMixStepper(l *layout.Layout) *zoneMixStepper {
	return &zoneMixStepper{layout: l}
}

func (z *zoneMixStepper) step(_ analysis.Snapshot, t float64, out []Frame) {
	set := zoneMixAssignments[int(t/zoneMixSeconds)%len(zoneMixAssignments)]

	for _, light := range z.layout.Lights() {
		out[light.GlobalIndex].Color = baseColor
		out[light.GlobalIndex].Intensity = subIntensity(
			set[light.Zone], light.ZoneIndex, light.ZoneCount, t)
	}
}

// subIntensity evaluates one zone-local sub-pattern for a light.
func subIntensity(sub subPattern, zi, zc int, t float64) float64 {
	switch sub {
	case subAllOn:
		return 1
	case subBreathe:
		return 0.5 - 0.5*math.Cos(2*math.Pi*t/breathSeconds)
	case subChase:
		if zc == 0 {
			return 0
		}
		head := int(t/chaseStepSeconds) % zc
		if zi == head {
			return 1
		}
		if (head-zi+zc)%zc == 1 {
			return 0.5
		}
		return 0
	case subCenterOut:
		return centerOutIntensity(centerRank(zi, zc), math.Mod(t/centerOutSeconds, 1))
	default: // subOff
		return 0
	}
}
