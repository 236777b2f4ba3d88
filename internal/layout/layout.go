// SPDX-License-Identifier: MIT
//
// Package layout models the spatial arrangement of the light rig: six named
// zones, a light count per zone, and a deterministic 3D position for every
// light. Everything here is a pure function of configuration so identical
// settings always produce identical rigs.
package layout

import "auralight/internal/config"

// Zone names a spatial group of lights.
type Zone int

const (
	Left Zone = iota
	Right
	Front
	Back
	Top
	Bottom
)

// zoneOrder fixes the global iteration order. Whole-rig patterns (chase,
// swirl) depend on this order being stable.
var zoneOrder = [...]Zone{Left, Right, Front, Back, Top, Bottom}

func (z Zone) String() string {
	switch z {
	case Left:
		return "left"
	case Right:
		return "right"
	case Front:
		return "front"
	case Back:
		return "back"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Vec3 is a position in the host's world space.
type Vec3 struct {
	X, Y, Z float64
}

// Light identifies one light and its fixed placement.
type Light struct {
	GlobalIndex int  // Index in the global zone-major ordering.
	Zone        Zone
	ZoneIndex   int  // Index within the zone.
	ZoneCount   int  // Total lights in this zone.
	Position    Vec3
}

// Layout is the fully resolved rig: one Light per configured slot, in stable
// global order. Build it once at session start; counts are immutable after
// that.
type Layout struct {
	lights []Light
	counts [len(zoneOrder)]int
}

// Approximate room placement for each zone. The configured center offset
// shifts all of them together.
var zoneBase = map[Zone]Vec3{
	Left:   {X: -3, Y: 1.5, Z: 0},
	Right:  {X: 3, Y: 1.5, Z: 0},
	Front:  {X: 0, Y: 1.5, Z: 3},
	Back:   {X: 0, Y: 1.5, Z: -3},
	Top:    {X: 0, Y: 4, Z: 0},
	Bottom: {X: 0, Y: -0.5, Z: 0},
}

// Build resolves the configured zone counts into a Layout. Zones with count 0
// contribute no lights. Negative counts are a configuration error and are
// rejected by config validation before this runs.
func Build(cfg config.LayoutConfig) *Layout {
	counts := [len(zoneOrder)]int{
		cfg.Left, cfg.Right, cfg.Front, cfg.Back, cfg.Top, cfg.Bottom,
	}

	l := &Layout{counts: counts}

	idx := 0
	for zi, zone := range zoneOrder {
		count := counts[zi]
		base := zoneBase[zone]
		for i := 0; i < count; i++ {
			// Spread lights symmetrically around the zone base. Side zones
			// stack vertically, the rest spread along X.
			offset := (float64(i) - float64(count)/2) * cfg.Spacing
			pos := base
			if zone == Left || zone == Right {
				pos.Y += offset
			} else {
				pos.X += offset
			}
			pos.X += cfg.Center.X
			pos.Y += cfg.Center.Y
			pos.Z += cfg.Center.Z

			l.lights = append(l.lights, Light{
				GlobalIndex: idx,
				Zone:        zone,
				ZoneIndex:   i,
				ZoneCount:   count,
				Position:    pos,
			})
			idx++
		}
	}

	return l
}

// Total returns the number of lights in the rig.
func (l *Layout) Total() int {
	return len(l.lights)
}

// Lights returns all lights in stable global order. Callers must not modify
// the returned slice.
func (l *Layout) Lights() []Light {
	return l.lights
}

// ZoneCount returns the number of lights in the given zone.
func (l *Layout) ZoneCount(zone Zone) int {
	if int(zone) < 0 || int(zone) >= len(zoneOrder) {
		return 0
	}
	return l.counts[zone]
}

// Zones returns the fixed zone iteration order.
func Zones() []Zone {
	return zoneOrder[:]
}
