// SPDX-License-Identifier: MIT
package pattern

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/layout"
)

func testLayout() *layout.Layout {
	return layout.Build(config.LayoutConfig{
		Left: 5, Right: 5, Front: 3, Back: 2, Top: 4, Bottom: 2,
		Spacing: 0.5,
	})
}

func testPatternConfig() config.PatternConfig {
	return config.PatternConfig{
		Default:   "chase",
		ChaseTail: 3,
		HueScale:  0.3,
	}
}

func loudSnapshot() analysis.Snapshot {
	return analysis.Snapshot{
		Low: 0.8, Mid: 0.6, High: 0.4, Overall: 0.7,
		Beat: true, Time: time.Unix(100, 0),
	}
}

func TestParseKnowsAll18(t *testing.T) {
	t.Parallel()
	if len(Names()) != 18 {
		t.Fatalf("expected 18 pattern names, got %d", len(Names()))
	}
	for _, name := range Names() {
		n, err := Parse(name)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", name, err)
		}
		if n.String() != name {
			t.Errorf("Parse(%q).String() = %q", name, n.String())
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	t.Parallel()
	if _, err := Parse("disco_inferno"); err == nil {
		t.Error("expected error for unknown pattern name")
	}
}

func TestTimeDrivenPatternsIgnoreAudio(t *testing.T) {
	t.Parallel()
	l := testLayout()
	cfg := testPatternConfig()

	for _, name := range Names() {
		n, _ := Parse(name)
		if n.AudioDriven() {
			continue
		}

		for _, elapsed := range []time.Duration{0, 700 * time.Millisecond, 13 * time.Second, 5 * time.Minute} {
			a := NewEngine(l, cfg, n).Step(analysis.Silence(), elapsed)
			b := NewEngine(l, cfg, n).Step(loudSnapshot(), elapsed)
			for i := range a {
				if a[i] != b[i] {
					t.Errorf("%s: output depends on audio at t=%v (light %d: %+v vs %+v)",
						name, elapsed, i, a[i], b[i])
					break
				}
			}
		}
	}
}

func TestAudioDrivenPatternsSurviveSilence(t *testing.T) {
	t.Parallel()
	l := testLayout()
	cfg := testPatternConfig()

	for _, name := range Names() {
		n, _ := Parse(name)
		if !n.AudioDriven() {
			continue
		}

		e := NewEngine(l, cfg, n)
		frames := e.Step(analysis.Silence(), 3*time.Second)

		lit := false
		for i, f := range frames {
			for _, v := range []float64{f.Color.R, f.Color.G, f.Color.B, f.Intensity} {
				if math.IsNaN(v) || v < 0 || v > 1 {
					t.Fatalf("%s: light %d has out-of-range value %f on silence", name, i, v)
				}
			}
			if f.Intensity > 0 {
				lit = true
			}
		}
		if !lit {
			t.Errorf("%s: silence fallback blacked out the rig, want a neutral idle look", name)
		}
	}
}

func TestChaseWindowShape(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), Chase)
	n := l.Total()

	for _, elapsed := range []time.Duration{0, 450 * time.Millisecond, 2 * time.Second, time.Duration(float64(n) * chaseStepSeconds * 1.5 * float64(time.Second))} {
		frames := e.Step(analysis.Silence(), elapsed)

		lit := 0
		head := -1
		for i, f := range frames {
			if f.Intensity > 0 {
				lit++
				if f.Intensity == 1 {
					head = i
				}
			}
		}
		if lit != 3 {
			t.Fatalf("t=%v: %d lights lit, want exactly 3 (tail length)", elapsed, lit)
		}
		if head < 0 {
			t.Fatalf("t=%v: no light at full intensity", elapsed)
		}

		// The window trails the head with strictly decreasing intensity.
		mid := (head - 1 + n) % n
		tail := (head - 2 + n) % n
		if !(frames[head].Intensity > frames[mid].Intensity && frames[mid].Intensity > frames[tail].Intensity) {
			t.Errorf("t=%v: intensities not decreasing head>mid>tail: %.2f %.2f %.2f",
				elapsed, frames[head].Intensity, frames[mid].Intensity, frames[tail].Intensity)
		}
	}
}

func TestChaseHeadAdvancesAndWraps(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), Chase)
	n := l.Total()

	headAt := func(t64 float64) int {
		frames := e.Step(analysis.Silence(), time.Duration(t64*float64(time.Second)))
		for i, f := range frames {
			if f.Intensity == 1 {
				return i
			}
		}
		return -1
	}

	h0 := headAt(0.05)
	h1 := headAt(0.05 + chaseStepSeconds)
	if h1 != (h0+1)%n {
		t.Errorf("head moved %d -> %d, want one step forward", h0, h1)
	}

	// One full cycle later the head is back where it started.
	hWrap := headAt(0.05 + float64(n)*chaseStepSeconds)
	if hWrap != h0 {
		t.Errorf("head after full cycle = %d, want %d", hWrap, h0)
	}
}

func TestChaseReverseMirrorsChase(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), ChaseReverse)
	n := l.Total()

	headAt := func(t64 float64) int {
		frames := e.Step(analysis.Silence(), time.Duration(t64*float64(time.Second)))
		for i, f := range frames {
			if f.Intensity == 1 {
				return i
			}
		}
		return -1
	}

	h0 := headAt(0.05)
	h1 := headAt(0.05 + chaseStepSeconds)
	if h1 != (h0-1+n)%n {
		t.Errorf("reverse head moved %d -> %d, want one step backward", h0, h1)
	}
}

func TestZoneMixChangesOnlyAtCycleBoundary(t *testing.T) {
	t.Parallel()
	l := testLayout()

	// The assignment set must be a pure function of floor(t/cycle).
	setAt := func(t64 float64) [6]subPattern {
		return zoneMixAssignments[int(t64/zoneMixSeconds)%len(zoneMixAssignments)]
	}

	if setAt(0.1) != setAt(13.9) {
		t.Error("assignment changed within the first cycle")
	}
	if setAt(13.9) == setAt(14.1) {
		t.Error("assignment did not change across the 14s boundary")
	}
	if setAt(1.0) != setAt(1.0+4*zoneMixSeconds) {
		t.Error("assignment sets do not cycle with period 4")
	}

	// And the stepper output reflects it: identical t gives identical
	// frames, including right at a boundary.
	e := NewEngine(l, testPatternConfig(), ZoneMix)
	a := e.Step(analysis.Silence(), 14*time.Second)
	aCopy := make([]Frame, len(a))
	copy(aCopy, a)
	b := NewEngine(l, testPatternConfig(), ZoneMix).Step(analysis.Silence(), 14*time.Second)
	for i := range aCopy {
		if aCopy[i] != b[i] {
			t.Fatalf("zone_mix not deterministic at the boundary (light %d)", i)
		}
	}
}

func TestZoneOffPatterns(t *testing.T) {
	t.Parallel()
	l := testLayout()

	for _, tc := range []struct {
		name Name
		off  layout.Zone
	}{
		{LeftOff, layout.Left},
		{RightOff, layout.Right},
	} {
		frames := NewEngine(l, testPatternConfig(), tc.name).Step(analysis.Silence(), time.Second)
		for _, light := range l.Lights() {
			got := frames[light.GlobalIndex].Intensity
			if light.Zone == tc.off && got != 0 {
				t.Errorf("%v: light in %v zone lit at %.2f", tc.name, tc.off, got)
			}
			if light.Zone != tc.off && got != 1 {
				t.Errorf("%v: light in %v zone at %.2f, want full", tc.name, light.Zone, got)
			}
		}
	}
}

func TestCenterOutExpandsFromMiddle(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), CenterOut)

	// Early in the cycle only lights near each zone's center are at full.
	frames := e.Step(analysis.Silence(), 100*time.Millisecond)
	for _, light := range l.Lights() {
		if light.ZoneCount < 3 {
			continue
		}
		mid := light.ZoneCount / 2
		edge := 0
		midIdx, edgeIdx := -1, -1
		for _, other := range l.Lights() {
			if other.Zone != light.Zone {
				continue
			}
			if other.ZoneIndex == mid {
				midIdx = other.GlobalIndex
			}
			if other.ZoneIndex == edge {
				edgeIdx = other.GlobalIndex
			}
		}
		if frames[midIdx].Intensity < frames[edgeIdx].Intensity {
			t.Errorf("zone %v: center light %.2f dimmer than edge light %.2f early in cycle",
				light.Zone, frames[midIdx].Intensity, frames[edgeIdx].Intensity)
		}
	}
}

func TestBeatHueJumpsOnBeat(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), BeatHue)

	noBeat := analysis.Snapshot{Low: 0.5, Time: time.Unix(1, 0)}
	beat := analysis.Snapshot{Low: 0.5, Beat: true, Time: time.Unix(2, 0)}

	a := e.Step(noBeat, time.Second)[0].Color
	b := e.Step(noBeat, 2*time.Second)[0].Color
	if a != b {
		t.Error("hue changed without a beat")
	}
	c := e.Step(beat, 3*time.Second)[0].Color
	if c == b {
		t.Error("hue did not jump on a beat pulse")
	}
}

func TestSwitchDiscardsState(t *testing.T) {
	t.Parallel()
	l := testLayout()
	e := NewEngine(l, testPatternConfig(), BeatHue)

	beat := analysis.Snapshot{Low: 0.5, Beat: true, Time: time.Unix(1, 0)}
	for i := 0; i < 5; i++ {
		e.Step(beat, time.Duration(i)*time.Second)
	}
	advanced := e.Step(analysis.Snapshot{Low: 0.5, Time: time.Unix(9, 0)}, 6*time.Second)[0].Color

	// Switching away and back resets the hue accumulator.
	e.Switch(Chase)
	if e.Active() != Chase {
		t.Fatalf("Active() = %v after switch, want chase", e.Active())
	}
	e.Switch(BeatHue)
	fresh := e.Step(analysis.Snapshot{Low: 0.5, Time: time.Unix(10, 0)}, 7*time.Second)[0].Color

	if fresh == advanced {
		t.Error("beat_hue state survived a pattern switch")
	}
}

func TestAllPatternsFuzzStayClamped(t *testing.T) {
	t.Parallel()
	l := testLayout()
	cfg := testPatternConfig()
	cfg.RotationEnabled = true
	cfg.RotationAudioBoost = true
	rng := rand.New(rand.NewSource(42))

	for _, name := range Names() {
		n, _ := Parse(name)
		e := NewEngine(l, cfg, n)

		for iter := 0; iter < 200; iter++ {
			snap := analysis.Snapshot{
				Low:     rng.Float64() * 2, // Deliberately out of range.
				Mid:     rng.Float64() * 2,
				High:    rng.Float64() * 2,
				Overall: rng.Float64() * 2,
				Beat:    rng.Intn(4) == 0,
				Time:    time.Unix(rng.Int63n(1000), 0),
			}
			elapsed := time.Duration(rng.Float64() * float64(time.Hour))

			for i, f := range e.Step(snap, elapsed) {
				for _, v := range []float64{f.Color.R, f.Color.G, f.Color.B, f.Intensity} {
					if math.IsNaN(v) || v < 0 || v > 1 {
						t.Fatalf("%s: light %d emitted %f at t=%v", name, i, v, elapsed)
					}
				}
			}
		}
	}
}

func TestHSVConversion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hue  float64
		want RGB
	}{
		{0, RGB{1, 0, 0}},
		{1.0 / 3, RGB{0, 1, 0}},
		{2.0 / 3, RGB{0, 0, 1}},
	}
	for _, tt := range tests {
		got := hsv(tt.hue, 1, 1)
		if math.Abs(got.R-tt.want.R) > 1e-9 ||
			math.Abs(got.G-tt.want.G) > 1e-9 ||
			math.Abs(got.B-tt.want.B) > 1e-9 {
			t.Errorf("hsv(%.3f, 1, 1) = %+v, want %+v", tt.hue, got, tt.want)
		}
	}
}
