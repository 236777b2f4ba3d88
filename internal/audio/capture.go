// SPDX-License-Identifier: MIT
/*
Package audio feeds sample frames into the analyzer from one of two sources:
live microphone capture through PortAudio, or a WAV file replayed in real
time. Both push float64 mono frames; the analyzer owns windowing and
analysis cadence.
*/
package audio

import (
	"fmt"
	"runtime"

	"github.com/gordonklaus/portaudio"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/log"
)

// Source is a running sample producer. Stop must be safe to call after a
// failed Start.
type Source interface {
	Start() error
	Stop() error
}

// CaptureSource streams mono microphone input into the analyzer. The
// PortAudio callback converts samples in a pre-allocated buffer; the analyzer
// hot path is allocation-free, so the callback never touches the GC.
type CaptureSource struct {
	cfg      config.AudioConfig
	analyzer *analysis.Analyzer

	device *portaudio.DeviceInfo
	stream *portaudio.Stream
	mono   []float64
}

var _ Source = (*CaptureSource)(nil)

// NewCapture resolves the configured input device and prepares a capture
// source. PortAudio must already be initialized.
func NewCapture(cfg config.AudioConfig, analyzer *analysis.Analyzer) (*CaptureSource, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, fmt.Errorf("audio: resolve input device: %w", err)
	}
	if device.MaxInputChannels < 1 {
		return nil, fmt.Errorf("audio: device %q has no input channels", device.Name)
	}

	return &CaptureSource{
		cfg:      cfg,
		analyzer: analyzer,
		device:   device,
		mono:     make([]float64, cfg.HopSize),
	}, nil
}

// Start opens and starts the input stream. Frames arrive on the PortAudio
// callback thread in hop-sized buffers.
func (c *CaptureSource) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   c.device,
			Latency:  c.device.DefaultHighInputLatency,
		},
		FramesPerBuffer: c.cfg.HopSize,
		SampleRate:      c.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, c.processInput)
	if err != nil {
		return fmt.Errorf("audio: open input stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("audio: start input stream: %w", err)
	}

	log.Infof("Capturing from %q at %.0f Hz (hop %d)",
		c.device.Name, c.cfg.SampleRate, c.cfg.HopSize)
	return nil
}

// Stop halts and closes the input stream.
func (c *CaptureSource) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil
	return nil
}

// processInput is the capture callback.
// Performance critical: pre-allocated buffers only, no allocations.
func (c *CaptureSource) processInput(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := len(in)
	if n > len(c.mono) {
		n = len(c.mono)
	}
	for i := 0; i < n; i++ {
		c.mono[i] = float64(in[i])
	}

	c.analyzer.Feed(c.mono[:n])
}
