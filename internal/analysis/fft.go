// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"auralight/pkg/bitint"
)

// WindowFunc selects the window applied before the FFT to reduce spectral
// leakage.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	Nuttall
	Lanczos
)

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	default:
		return Hann, fmt.Errorf("unknown window function: %q", name)
	}
}

// spectrumWorkspace holds pre-allocated buffers so the per-frame path never
// allocates.
type spectrumWorkspace struct {
	input     []float64    // Windowed input frame.
	fftOutput []complex128 // FFT complex results.
	magnitude []float64    // Magnitude spectrum.
	window    []float64    // Window coefficients, computed once.
}

// Spectrum computes the magnitude spectrum of fixed-length audio frames.
// It is not safe for concurrent use; the analyzer owns one instance and
// calls it from a single goroutine.
type Spectrum struct {
	fft        *fourier.FFT
	size       int
	sampleRate float64
	workspace  spectrumWorkspace
}

// NewSpectrum creates a Spectrum for frames of the given size. Size must be a
// power of 2 (config validation enforces this; the check here guards direct
// construction in tests).
func NewSpectrum(size int, sampleRate float64, windowType WindowFunc) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	default:
		window.Hann(coeffs)
	}

	// Real FFT output is size/2 + 1 complex values.
	outputSize := size/2 + 1

	return &Spectrum{
		fft:        fourier.NewFFT(size),
		size:       size,
		sampleRate: sampleRate,
		workspace: spectrumWorkspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, outputSize),
			magnitude: make([]float64, outputSize),
			window:    coeffs,
		},
	}, nil
}

// Process windows the frame, runs the FFT, and returns the magnitude
// spectrum. Frames shorter than the FFT size are zero-padded. The returned
// slice is the internal buffer; callers must consume it before the next call.
func (s *Spectrum) Process(frame []float64) []float64 {
	n := len(frame)
	for i := 0; i < s.size; i++ {
		if i < n {
			s.workspace.input[i] = frame[i] * s.workspace.window[i]
		} else {
			s.workspace.input[i] = 0
		}
	}

	s.fft.Coefficients(s.workspace.fftOutput, s.workspace.input)
	for i, c := range s.workspace.fftOutput {
		s.workspace.magnitude[i] = cmplx.Abs(c)
	}

	return s.workspace.magnitude
}

// BinFrequency returns the center frequency (Hz) for an FFT bin index.
func (s *Spectrum) BinFrequency(bin int) float64 {
	if bin < 0 || bin >= len(s.workspace.fftOutput) {
		return 0
	}
	return float64(bin) * s.sampleRate / float64(s.size)
}

// Bins returns the number of magnitude bins (size/2 + 1).
func (s *Spectrum) Bins() int {
	return len(s.workspace.magnitude)
}

// Size returns the FFT frame length.
func (s *Spectrum) Size() int {
	return s.size
}
