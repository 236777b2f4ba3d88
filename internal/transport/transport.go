// SPDX-License-Identifier: MIT
/*
Package transport carries light commands to the remote 3D host. The core
treats every operation as independently fallible: create failures matter at
session start, update failures are logged and dropped (the next tick
overwrites them anyway), and remove failures are tolerated during teardown.
*/
package transport

import "auralight/internal/layout"

// Handle identifies a created light for later updates and removal.
type Handle int

// Color is an RGB triple with channels in [0,1].
type Color struct {
	R, G, B float64
}

// Update is one light's new visual state. Yaw is in degrees and only sent
// when non-nil.
type Update struct {
	Color     Color
	Intensity float64
	Yaw       *float64
}

// Client is the session with the remote host. Implementations must be safe
// for calls from a single goroutine (the update loop owns the client).
// UpdateLight is fire-and-forget: no acknowledgement is awaited.
type Client interface {
	// CreateLight adds one light at its layout position and returns a
	// handle for updates.
	CreateLight(light layout.Light) (Handle, error)

	// UpdateLight pushes a new color/intensity (and optionally yaw) for a
	// previously created light.
	UpdateLight(h Handle, u Update) error

	// RemoveLight removes one light from the host.
	RemoveLight(h Handle) error

	// Close tears down the session. Lights that were not removed first may
	// be cleaned up host-side in one shot, depending on the implementation.
	Close() error
}
