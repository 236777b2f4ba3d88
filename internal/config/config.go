// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the light controller.
const (
	// Audio capture defaults
	DefaultSampleRate  = 44100 // CD-quality audio
	DefaultFFTSize     = 2048  // Analysis window length (power of 2)
	DefaultHopSize     = 1024  // Analysis hop (half-window overlap)
	DefaultInputDevice = -1    // -1 represents the system default device
	DefaultWindow      = "hann"

	// Spectral band boundaries (Hz)
	DefaultLowMinHz  = 20
	DefaultLowMaxHz  = 250
	DefaultMidMaxHz  = 2000
	DefaultHighMaxHz = 20000

	// Normalization / smoothing time constants
	DefaultNormDecaySeconds = 4.0   // Running-max decay time constant
	DefaultAttackMs         = 50    // Band smoothing, rising edge
	DefaultDecayMs          = 300   // Band smoothing, falling edge
	DefaultSilenceTimeoutMs = 500   // Snapshot age before silence fallback
	DefaultBeatThreshold    = 1.6   // Low band vs rolling average multiplier
	DefaultBeatRefractoryMs = 200   // Minimum interval between beat pulses
	DefaultGateThreshold    = 0.001 // Frames below this RMS count as silent

	// Animation defaults
	DefaultUpdateRate    = 30      // Light update ticks per second
	DefaultPattern       = "chase" // Startup pattern
	DefaultChaseTail     = 3       // Lights in the chase tail
	DefaultHueScale      = 0.3     // Energy-to-hue sweep width
	DefaultRotationSpeed = 30      // Yaw degrees per second when enabled
	DefaultZoneSpacing   = 0.5     // Distance between lights within a zone
	DefaultTeardownMs    = 3000    // Bound on shutdown light removal
	DefaultHostPort      = "27404" // ResoniteLink session port

	// Hardware and processing limits
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFFTSize    = 16384  // Cap on the analysis window
	MaxZoneLights = 256    // Per-zone sanity limit
)
