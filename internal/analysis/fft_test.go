// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

const (
	testFFTSize    = 2048
	testSampleRate = 44100.0
)

func sineFrame(size int, sampleRate, freq float64) []float64 {
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = 0.9 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return frame
}

func TestSpectrumRejectsBadSizes(t *testing.T) {
	t.Parallel()
	if _, err := NewSpectrum(1000, testSampleRate, Hann); err == nil {
		t.Error("expected error for non-power-of-2 size")
	}
	if _, err := NewSpectrum(testFFTSize, -1, Hann); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

func TestSpectrumFindsPeakBin(t *testing.T) {
	t.Parallel()
	spec, err := NewSpectrum(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	const freq = 440.0
	magnitudes := spec.Process(sineFrame(testFFTSize, testSampleRate, freq))

	peakBin := 0
	for i, m := range magnitudes {
		if m > magnitudes[peakBin] {
			peakBin = i
		}
	}

	got := spec.BinFrequency(peakBin)
	binWidth := testSampleRate / testFFTSize
	if math.Abs(got-freq) > binWidth {
		t.Errorf("peak at %.1f Hz, want within one bin (%.1f Hz) of %.1f Hz", got, binWidth, freq)
	}
}

func TestSpectrumHotPathZeroAllocs(t *testing.T) {
	spec, err := NewSpectrum(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	frame := sineFrame(testFFTSize, testSampleRate, 440)

	spec.Process(frame) // Warm-up.
	allocs := testing.AllocsPerRun(100, func() {
		spec.Process(frame)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in Process hot path, got %.1f", allocs)
	}
}

func TestSpectrumZeroPadsShortFrames(t *testing.T) {
	t.Parallel()
	spec, err := NewSpectrum(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatal(err)
	}

	magnitudes := spec.Process(sineFrame(testFFTSize/2, testSampleRate, 440))
	for i, m := range magnitudes {
		if math.IsNaN(m) || math.IsInf(m, 0) {
			t.Fatalf("bin %d is %f after zero-padding", i, m)
		}
	}
}

func TestParseWindowFunc(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"nuttall", Nuttall, false},
		{"lanczos", Lanczos, false},
		{"triangle", Hann, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
