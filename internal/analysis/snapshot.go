// SPDX-License-Identifier: MIT
package analysis

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the audio state at one analysis frame.
// Band energies and loudness are normalized and smoothed to [0,1]. Beat is a
// pulse flag: it is set on the frame where a beat was detected and cleared on
// the next frame.
type Snapshot struct {
	Low     float64   // Bass band energy.
	Mid     float64   // Mid band energy.
	High    float64   // Treble band energy.
	Overall float64   // Full-spectrum loudness.
	Beat    bool      // Beat pulse detected this frame.
	Time    time.Time // When the frame was analyzed.
}

// Silence is the documented fallback when no audio source is active or the
// analyzer has gone quiet: all energies zero, no beat.
func Silence() Snapshot {
	return Snapshot{}
}

// Cell is an atomic latest-value slot for snapshots. The analyzer is the
// single writer; readers always take the most recent value without blocking.
// The zero value is ready to use and yields Silence.
type Cell struct {
	v atomic.Pointer[Snapshot]
}

// Store publishes a new snapshot, replacing the previous one.
func (c *Cell) Store(s Snapshot) {
	c.v.Store(&s)
}

// Latest returns the most recent snapshot, or Silence if none has been
// published yet.
func (c *Cell) Latest() Snapshot {
	p := c.v.Load()
	if p == nil {
		return Silence()
	}
	return *p
}

// LatestWithin returns the most recent snapshot if it is younger than maxAge,
// and Silence otherwise. This is how readers degrade gracefully when the
// audio source stalls instead of animating on stale data.
func (c *Cell) LatestWithin(maxAge time.Duration, now time.Time) Snapshot {
	s := c.Latest()
	if s.Time.IsZero() || now.Sub(s.Time) > maxAge {
		return Silence()
	}
	return s
}
