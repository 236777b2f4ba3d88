// SPDX-License-Identifier: MIT
package transport

import (
	"sync"

	"auralight/internal/layout"
	"auralight/internal/log"
)

// Recorder is a Client that performs no I/O. It backs dry-run mode, where the
// show runs without a host connection, and doubles as a test seam for the
// update loop. All counters are mutex-guarded so tests may inspect them while
// the loop runs.
type Recorder struct {
	mu      sync.Mutex
	created []layout.Light
	updates map[Handle]Update
	removed map[Handle]bool
	closed  bool
}

var _ Client = (*Recorder)(nil)

// NewRecorder returns an empty recording client.
func NewRecorder() *Recorder {
	return &Recorder{
		updates: make(map[Handle]Update),
		removed: make(map[Handle]bool),
	}
}

func (r *Recorder) CreateLight(light layout.Light) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, light)
	h := Handle(len(r.created) - 1)
	log.Debugf("Dry run: create light %s_%d at (%.2f, %.2f, %.2f)",
		light.Zone, light.ZoneIndex, light.Position.X, light.Position.Y, light.Position.Z)
	return h, nil
}

func (r *Recorder) UpdateLight(h Handle, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[h] = u
	return nil
}

func (r *Recorder) RemoveLight(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed[h] = true
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Created returns a copy of the lights created so far.
func (r *Recorder) Created() []layout.Light {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]layout.Light, len(r.created))
	copy(out, r.created)
	return out
}

// LastUpdate returns the most recent update for a handle, if any.
func (r *Recorder) LastUpdate(h Handle) (Update, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.updates[h]
	return u, ok
}

// RemovedCount returns how many distinct lights have been removed.
func (r *Recorder) RemovedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removed)
}

// Closed reports whether Close has been called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
