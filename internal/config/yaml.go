// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"auralight/pkg/bitint"
)

// ErrInvalid marks configuration errors. These are fatal at startup and are
// never raised mid-session.
var ErrInvalid = errors.New("invalid configuration")

// Config is the main application configuration, loaded from YAML.
type Config struct {
	Debug    bool           `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel string         `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Layout   LayoutConfig   `yaml:"layout"`    // Light counts and placement.
	Pattern  PatternConfig  `yaml:"pattern"`   // Pattern selection and tuning.
	Audio    AudioConfig    `yaml:"audio"`     // Audio source and capture settings.
	Analysis AnalysisConfig `yaml:"analysis"`  // Spectral analysis tuning.
	Engine   EngineConfig   `yaml:"engine"`    // Update loop settings.
	Host     HostConfig     `yaml:"host"`      // Remote host session settings.
}

// LayoutConfig holds per-zone light counts and placement parameters.
// Counts are immutable for the lifetime of a session.
type LayoutConfig struct {
	Left    int          `yaml:"left"`
	Right   int          `yaml:"right"`
	Front   int          `yaml:"front"`
	Back    int          `yaml:"back"`
	Top     int          `yaml:"top"`
	Bottom  int          `yaml:"bottom"`
	Spacing float64      `yaml:"spacing"` // Distance between lights within a zone.
	Center  CenterOffset `yaml:"center"`  // Offset applied to every light position.
}

// CenterOffset shifts the whole rig in world space.
type CenterOffset struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// PatternConfig holds pattern selection and per-pattern tuning.
type PatternConfig struct {
	Default            string  `yaml:"default"`              // Startup pattern name.
	ChaseTail          int     `yaml:"chase_tail"`           // Number of lights in the chase tail.
	HueScale           float64 `yaml:"hue_scale"`            // Energy-to-hue sweep width (fraction of the hue circle).
	RotationEnabled    bool    `yaml:"rotation_enabled"`     // Emit yaw rotation with light updates.
	RotationSpeed      float64 `yaml:"rotation_speed"`       // Yaw degrees per second.
	RotationAudioBoost bool    `yaml:"rotation_audio_boost"` // Scale rotation speed by bass energy.
}

// AudioConfig holds audio source and capture settings.
// Source selects where samples come from: "microphone", "none", or a path to
// a WAV file (looped on exhaustion). "none" runs the patterns without audio.
type AudioConfig struct {
	Source      string  `yaml:"source"`
	InputDevice int     `yaml:"input_device"` // PortAudio device index (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`  // Sample rate in Hz.
	FFTSize     int     `yaml:"fft_size"`     // Analysis window length (power of 2).
	HopSize     int     `yaml:"hop_size"`     // Samples between analysis frames.
	Window      string  `yaml:"window"`       // Window function name (e.g. "hann", "hamming").
}

// AnalysisConfig holds spectral analysis tuning. All values have usable
// defaults; they are exposed because the right numbers depend on the music
// and the room.
type AnalysisConfig struct {
	LowMinHz         float64 `yaml:"low_min_hz"`         // Bottom of the low band.
	LowMaxHz         float64 `yaml:"low_max_hz"`         // Low/mid boundary.
	MidMaxHz         float64 `yaml:"mid_max_hz"`         // Mid/high boundary.
	HighMaxHz        float64 `yaml:"high_max_hz"`        // Top of the high band.
	NormDecaySeconds float64 `yaml:"norm_decay_seconds"` // Running-max decay time constant.
	AttackMs         float64 `yaml:"attack_ms"`          // Band smoothing rise time constant.
	DecayMs          float64 `yaml:"decay_ms"`           // Band smoothing fall time constant.
	BeatThreshold    float64 `yaml:"beat_threshold"`     // Low band vs rolling average multiplier.
	BeatRefractoryMs float64 `yaml:"beat_refractory_ms"` // Minimum interval between beat pulses.
	SilenceTimeoutMs float64 `yaml:"silence_timeout_ms"` // Snapshot age before silence fallback.
	GateThreshold    float64 `yaml:"gate_threshold"`     // RMS below which a frame counts as silent.
}

// EngineConfig holds update loop settings.
type EngineConfig struct {
	UpdateRate int     `yaml:"update_rate"` // Light update ticks per second.
	TeardownMs float64 `yaml:"teardown_ms"` // Bound on shutdown light removal.
}

// HostConfig holds remote host session settings. The session port changes
// every time the host world restarts, so it is usually supplied on the
// command line rather than in the file.
type HostConfig struct {
	Port string `yaml:"port"` // ResoniteLink websocket port.
	URL  string `yaml:"url"`  // Full websocket URL; overrides Port when set.
}

// Defaults returns a Config populated with the documented default for every
// option. The engine must be able to run from this alone.
func Defaults() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Layout: LayoutConfig{
			Spacing: DefaultZoneSpacing,
		},
		Pattern: PatternConfig{
			Default:            DefaultPattern,
			ChaseTail:          DefaultChaseTail,
			HueScale:           DefaultHueScale,
			RotationEnabled:    false,
			RotationSpeed:      DefaultRotationSpeed,
			RotationAudioBoost: true,
		},
		Audio: AudioConfig{
			Source:      "microphone",
			InputDevice: DefaultInputDevice,
			SampleRate:  DefaultSampleRate,
			FFTSize:     DefaultFFTSize,
			HopSize:     DefaultHopSize,
			Window:      DefaultWindow,
		},
		Analysis: AnalysisConfig{
			LowMinHz:         DefaultLowMinHz,
			LowMaxHz:         DefaultLowMaxHz,
			MidMaxHz:         DefaultMidMaxHz,
			HighMaxHz:        DefaultHighMaxHz,
			NormDecaySeconds: DefaultNormDecaySeconds,
			AttackMs:         DefaultAttackMs,
			DecayMs:          DefaultDecayMs,
			BeatThreshold:    DefaultBeatThreshold,
			BeatRefractoryMs: DefaultBeatRefractoryMs,
			SilenceTimeoutMs: DefaultSilenceTimeoutMs,
			GateThreshold:    DefaultGateThreshold,
		},
		Engine: EngineConfig{
			UpdateRate: DefaultUpdateRate,
			TeardownMs: DefaultTeardownMs,
		},
		Host: HostConfig{
			Port: DefaultHostPort,
		},
	}
}

// Load reads configuration from the YAML file at path. If path is empty it
// searches the default location ("config.yaml"); if no file is found the
// built-in defaults are used. Environment overrides are applied after the
// file, and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for fatal errors. Everything it rejects
// would otherwise fail confusingly mid-session, so it runs once at startup.
func (c *Config) Validate() error {
	zones := map[string]int{
		"left": c.Layout.Left, "right": c.Layout.Right,
		"front": c.Layout.Front, "back": c.Layout.Back,
		"top": c.Layout.Top, "bottom": c.Layout.Bottom,
	}
	for name, count := range zones {
		if count < 0 {
			return fmt.Errorf("%w: layout.%s count %d is negative", ErrInvalid, name, count)
		}
		if count > MaxZoneLights {
			return fmt.Errorf("%w: layout.%s count %d exceeds limit %d", ErrInvalid, name, count, MaxZoneLights)
		}
	}
	if c.Layout.Spacing <= 0 {
		return fmt.Errorf("%w: layout.spacing must be positive", ErrInvalid)
	}

	if c.Pattern.ChaseTail < 1 {
		return fmt.Errorf("%w: pattern.chase_tail must be at least 1", ErrInvalid)
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %.0f outside [%d, %d]",
			ErrInvalid, c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FFTSize) || c.Audio.FFTSize > MaxFFTSize {
		return fmt.Errorf("%w: audio.fft_size must be a power of 2 up to %d, got %d",
			ErrInvalid, MaxFFTSize, c.Audio.FFTSize)
	}
	if c.Audio.HopSize < 1 || c.Audio.HopSize > c.Audio.FFTSize {
		return fmt.Errorf("%w: audio.hop_size must be in [1, fft_size]", ErrInvalid)
	}

	a := c.Analysis
	if !(a.LowMinHz >= 0 && a.LowMinHz < a.LowMaxHz && a.LowMaxHz < a.MidMaxHz && a.MidMaxHz < a.HighMaxHz) {
		return fmt.Errorf("%w: analysis band edges must be increasing (low_min < low_max < mid_max < high_max)", ErrInvalid)
	}
	if a.NormDecaySeconds <= 0 || a.AttackMs <= 0 || a.DecayMs <= 0 {
		return fmt.Errorf("%w: analysis time constants must be positive", ErrInvalid)
	}
	if a.BeatThreshold <= 1 {
		return fmt.Errorf("%w: analysis.beat_threshold must be greater than 1", ErrInvalid)
	}
	if a.BeatRefractoryMs < 0 || a.SilenceTimeoutMs <= 0 {
		return fmt.Errorf("%w: analysis beat/silence intervals must be positive", ErrInvalid)
	}

	if c.Engine.UpdateRate < 1 || c.Engine.UpdateRate > 240 {
		return fmt.Errorf("%w: engine.update_rate %d outside [1, 240]", ErrInvalid, c.Engine.UpdateRate)
	}
	if c.Engine.TeardownMs <= 0 {
		return fmt.Errorf("%w: engine.teardown_ms must be positive", ErrInvalid)
	}

	return nil
}

// TotalLights returns the configured light count across all zones.
func (c *Config) TotalLights() int {
	return c.Layout.Left + c.Layout.Right + c.Layout.Front +
		c.Layout.Back + c.Layout.Top + c.Layout.Bottom
}

// HostURL returns the websocket URL for the remote host session.
func (c *Config) HostURL() string {
	if c.Host.URL != "" {
		return c.Host.URL
	}
	return "ws://localhost:" + c.Host.Port + "/ResoniteLink"
}

// applyEnvOverrides applies AURALIGHT_* environment variables on top of the
// loaded configuration. Only the knobs that are awkward to pass any other way
// in a headless deployment are exposed.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("AURALIGHT_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("AURALIGHT_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("AURALIGHT_HOST_PORT"); ok {
		c.Host.Port = val
	}
	if val, ok := os.LookupEnv("AURALIGHT_HOST_URL"); ok {
		c.Host.URL = val
	}
	if val, ok := os.LookupEnv("AURALIGHT_AUDIO_SOURCE"); ok {
		c.Audio.Source = val
	}
}
