// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
}

func TestLoadParsesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
layout:
  left: 4
  right: 4
  top: 2
  spacing: 0.25
pattern:
  default: music_color
  chase_tail: 5
engine:
  update_rate: 60
host:
  port: "31337"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Layout.Left != 4 || cfg.Layout.Top != 2 {
		t.Errorf("layout counts not applied: %+v", cfg.Layout)
	}
	if cfg.Layout.Spacing != 0.25 {
		t.Errorf("spacing = %v, want 0.25", cfg.Layout.Spacing)
	}
	if cfg.Pattern.Default != "music_color" || cfg.Pattern.ChaseTail != 5 {
		t.Errorf("pattern config not applied: %+v", cfg.Pattern)
	}
	if cfg.Engine.UpdateRate != 60 {
		t.Errorf("update rate = %d, want 60", cfg.Engine.UpdateRate)
	}

	// Untouched sections keep their defaults.
	if cfg.Audio.FFTSize != DefaultFFTSize {
		t.Errorf("fft size = %d, want default %d", cfg.Audio.FFTSize, DefaultFFTSize)
	}
	if cfg.Analysis.BeatThreshold != DefaultBeatThreshold {
		t.Errorf("beat threshold = %v, want default %v", cfg.Analysis.BeatThreshold, DefaultBeatThreshold)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing explicit path succeeded")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "layout: [not, a, mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Load of malformed YAML succeeded")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative zone count", func(c *Config) { c.Layout.Left = -1 }},
		{"zone count over limit", func(c *Config) { c.Layout.Top = MaxZoneLights + 1 }},
		{"zero spacing", func(c *Config) { c.Layout.Spacing = 0 }},
		{"chase tail below one", func(c *Config) { c.Pattern.ChaseTail = 0 }},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }},
		{"fft size not power of two", func(c *Config) { c.Audio.FFTSize = 1000 }},
		{"fft size over limit", func(c *Config) { c.Audio.FFTSize = MaxFFTSize * 2 }},
		{"hop larger than window", func(c *Config) { c.Audio.HopSize = c.Audio.FFTSize + 1 }},
		{"band edges not increasing", func(c *Config) { c.Analysis.MidMaxHz = c.Analysis.LowMaxHz }},
		{"beat threshold at one", func(c *Config) { c.Analysis.BeatThreshold = 1 }},
		{"zero silence timeout", func(c *Config) { c.Analysis.SilenceTimeoutMs = 0 }},
		{"zero update rate", func(c *Config) { c.Engine.UpdateRate = 0 }},
		{"update rate over limit", func(c *Config) { c.Engine.UpdateRate = 1000 }},
		{"zero teardown budget", func(c *Config) { c.Engine.TeardownMs = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid configuration")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v is not ErrInvalid", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "host:\n  port: \"1111\"\n")
	t.Setenv("AURALIGHT_HOST_PORT", "2222")
	t.Setenv("AURALIGHT_LOG_LEVEL", "debug")
	t.Setenv("AURALIGHT_AUDIO_SOURCE", "none")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host.Port != "2222" {
		t.Errorf("env port override lost: %q", cfg.Host.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env log level override lost: %q", cfg.LogLevel)
	}
	if cfg.Audio.Source != "none" {
		t.Errorf("env audio source override lost: %q", cfg.Audio.Source)
	}
}

func TestHostURL(t *testing.T) {
	cfg := Defaults()
	if got := cfg.HostURL(); got != "ws://localhost:27404/ResoniteLink" {
		t.Errorf("HostURL() = %q", got)
	}

	cfg.Host.Port = "40000"
	if got := cfg.HostURL(); got != "ws://localhost:40000/ResoniteLink" {
		t.Errorf("HostURL() with port = %q", got)
	}

	cfg.Host.URL = "ws://10.0.0.5:40001/ResoniteLink"
	if got := cfg.HostURL(); got != cfg.Host.URL {
		t.Errorf("explicit URL should win, got %q", got)
	}
}

func TestTotalLights(t *testing.T) {
	cfg := Defaults()
	cfg.Layout.Left = 3
	cfg.Layout.Back = 2
	cfg.Layout.Bottom = 1
	if got := cfg.TotalLights(); got != 6 {
		t.Errorf("TotalLights() = %d, want 6", got)
	}
}
