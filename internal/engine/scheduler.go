// SPDX-License-Identifier: MIT
/*
Package engine runs the fixed-rate update loop that turns pattern output into
light updates. One goroutine owns the loop: it reads the latest audio
snapshot, steps the active pattern, diffs the result against what each light
last received, and pushes only the changed lights to the transport. Pattern
switch requests arrive on a channel and apply at the next tick.
*/
package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/layout"
	"auralight/internal/log"
	"auralight/internal/pattern"
	"auralight/internal/transport"
)

// State is the scheduler lifecycle. Transitions are one-way:
// Idle -> Running -> Stopping -> Terminated.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// updateEpsilon is the per-channel change below which a light is not resent.
// The host never renders differences this small, and skipping them keeps the
// wire quiet on slow-moving patterns.
const updateEpsilon = 1e-3

// switchQueueLen bounds pending pattern switch requests. The queue only fills
// if the UI outruns the tick rate; extra requests are dropped with a warning.
const switchQueueLen = 8

// Scheduler drives the show. Construct with New, then call Run exactly once;
// Run owns the loop goroutine state and returns after teardown completes.
type Scheduler struct {
	layout   *layout.Layout
	patterns *pattern.Engine
	cell     *analysis.Cell
	client   transport.Client

	interval       time.Duration
	silenceTimeout time.Duration
	teardown       time.Duration
	rotation       bool

	state    atomic.Int32
	active   atomic.Int32
	switchCh chan pattern.Name

	handles  []transport.Handle
	lastSent []sentFrame
}

type sentFrame struct {
	frame pattern.Frame
	valid bool
}

// New wires a scheduler. The pattern engine's active pattern is the one the
// loop starts with.
func New(l *layout.Layout, patterns *pattern.Engine, cell *analysis.Cell,
	client transport.Client, cfg *config.Config) *Scheduler {

	s := &Scheduler{
		layout:         l,
		patterns:       patterns,
		cell:           cell,
		client:         client,
		interval:       time.Second / time.Duration(cfg.Engine.UpdateRate),
		silenceTimeout: time.Duration(cfg.Analysis.SilenceTimeoutMs * float64(time.Millisecond)),
		teardown:       time.Duration(cfg.Engine.TeardownMs * float64(time.Millisecond)),
		rotation:       cfg.Pattern.RotationEnabled,
		switchCh:       make(chan pattern.Name, switchQueueLen),
		lastSent:       make([]sentFrame, l.Total()),
	}
	s.state.Store(int32(StateIdle))
	s.active.Store(int32(patterns.Active()))
	return s
}

// State returns the current lifecycle state. Safe from any goroutine.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Active returns the pattern currently driving the lights. Safe from any
// goroutine; during a pending switch it reports the outgoing pattern until
// the switch applies.
func (s *Scheduler) Active() pattern.Name {
	return pattern.Name(s.active.Load())
}

// RequestPattern queues a switch to apply on the next tick. Never blocks; if
// the queue is full the request is dropped.
func (s *Scheduler) RequestPattern(n pattern.Name) {
	select {
	case s.switchCh <- n:
	default:
		log.Warnf("Pattern switch queue full, dropping %s", n)
	}
}

// Run creates the lights, drives the update loop until ctx is canceled, then
// removes the lights. It always reaches Terminated, even when the transport
// fails during teardown. Returns an error only when light creation fails.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("engine: scheduler already started (state %s)", s.State())
	}

	if err := s.createLights(); err != nil {
		s.state.Store(int32(StateStopping))
		s.removeLights()
		s.state.Store(int32(StateTerminated))
		return err
	}

	log.Infof("Update loop running: %d lights at %v per tick, pattern %s",
		s.layout.Total(), s.interval, s.Active())

	start := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case now := <-ticker.C:
			s.applySwitches()
			snap := s.cell.LatestWithin(s.silenceTimeout, now)
			frames := s.patterns.Step(snap, now.Sub(start))
			s.push(frames)
		}
	}

	s.state.Store(int32(StateStopping))
	s.removeLights()
	s.state.Store(int32(StateTerminated))
	log.Infof("Update loop terminated")
	return nil
}

// createLights registers every layout light with the transport. Any failure
// aborts the session: a half-created rig is worse than none.
func (s *Scheduler) createLights() error {
	for _, light := range s.layout.Lights() {
		h, err := s.client.CreateLight(light)
		if err != nil {
			log.Errorf("Light creation failed at %s_%d: %v", light.Zone, light.ZoneIndex, err)
			return fmt.Errorf("engine: create light %d: %w", light.GlobalIndex, err)
		}
		s.handles = append(s.handles, h)
	}
	return nil
}

// applySwitches drains pending pattern switch requests. Applying them here,
// on the loop goroutine, keeps the pattern engine single-threaded.
func (s *Scheduler) applySwitches() {
	for {
		select {
		case n := <-s.switchCh:
			s.patterns.Switch(n)
			s.active.Store(int32(n))
			log.Infof("Pattern switched to %s", n)
		default:
			return
		}
	}
}

// push sends one tick's frames, skipping lights whose output has not
// meaningfully changed. Send errors are logged and dropped; the light catches
// up on its next change.
func (s *Scheduler) push(frames []pattern.Frame) {
	for i := range frames {
		if !s.changed(i, frames[i]) {
			continue
		}

		u := transport.Update{
			Color: transport.Color{
				R: frames[i].Color.R,
				G: frames[i].Color.G,
				B: frames[i].Color.B,
			},
			Intensity: frames[i].Intensity,
		}
		if s.rotation {
			yaw := frames[i].Yaw
			u.Yaw = &yaw
		}

		if err := s.client.UpdateLight(s.handles[i], u); err != nil {
			log.Warnf("Light %d update failed: %v", i, err)
		}
		s.lastSent[i] = sentFrame{frame: frames[i], valid: true}
	}
}

func (s *Scheduler) changed(i int, f pattern.Frame) bool {
	last := s.lastSent[i]
	if !last.valid {
		return true
	}
	if math.Abs(f.Color.R-last.frame.Color.R) > updateEpsilon ||
		math.Abs(f.Color.G-last.frame.Color.G) > updateEpsilon ||
		math.Abs(f.Color.B-last.frame.Color.B) > updateEpsilon ||
		math.Abs(f.Intensity-last.frame.Intensity) > updateEpsilon {
		return true
	}
	return s.rotation && math.Abs(f.Yaw-last.frame.Yaw) > updateEpsilon
}

// removeLights tears the rig down, bounded by the teardown budget. Removal
// errors are tolerated: the host cleans up the hierarchy when the session
// root goes away.
func (s *Scheduler) removeLights() {
	deadline := time.Now().Add(s.teardown)
	for i, h := range s.handles {
		if time.Now().After(deadline) {
			log.Warnf("Teardown budget exhausted with %d lights left", len(s.handles)-i)
			return
		}
		if err := s.client.RemoveLight(h); err != nil {
			log.Debugf("Light %d removal failed: %v", i, err)
		}
	}
}
