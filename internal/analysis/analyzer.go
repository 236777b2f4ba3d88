// SPDX-License-Identifier: MIT
/*
Package analysis converts a stream of PCM samples into audio snapshots:
smoothed low/mid/high band energies, overall loudness, and beat pulses.

The pipeline buffers samples into overlapping windows, applies a window
function, computes the FFT magnitude spectrum, partitions it into bands,
normalizes each band against a decaying running maximum, smooths with an
asymmetric attack/decay filter, and runs beat detection on the low band.
Results are published to an atomic latest-value cell; the update loop reads
that cell without ever blocking on the audio cadence.
*/
package analysis

import (
	"math"
	"time"

	"auralight/internal/log"
)

// Config collects the analyzer tuning derived from application config.
type Config struct {
	SampleRate float64
	FFTSize    int
	HopSize    int
	Window     WindowFunc

	Bands BandConfig

	BeatThreshold  float64
	BeatRefractory time.Duration

	// GateThreshold is the RMS below which a frame is treated as silent;
	// silent frames still produce snapshots (energies decay toward zero)
	// but are cheap to classify up front.
	GateThreshold float64
}

// Analyzer is the audio analysis pipeline. Feed is called from the audio
// source's goroutine; published snapshots cross to the update loop through
// the Cell. Analyzer itself is single-goroutine: only Feed touches its
// internal state.
type Analyzer struct {
	cfg      Config
	spectrum *Spectrum
	bands    *BandExtractor
	beat     *BeatDetector
	cell     *Cell

	buf     []float64 // Pending samples awaiting a full window.
	zeroBuf []float64 // All-zero magnitudes for gated frames.
	frames  uint64    // Analysis frames processed, for debug logging.

	now func() time.Time // Injected for tests.
}

// New builds the analyzer pipeline. The cell is shared with the readers; the
// analyzer is its single writer.
func New(cfg Config, cell *Cell) (*Analyzer, error) {
	spec, err := NewSpectrum(cfg.FFTSize, cfg.SampleRate, cfg.Window)
	if err != nil {
		return nil, err
	}

	frameInterval := float64(cfg.HopSize) / cfg.SampleRate

	return &Analyzer{
		cfg:      cfg,
		spectrum: spec,
		bands:    NewBandExtractor(cfg.Bands, spec, frameInterval),
		beat:     NewBeatDetector(cfg.BeatThreshold, cfg.BeatRefractory, frameInterval),
		cell:     cell,
		buf:      make([]float64, 0, cfg.FFTSize*2),
		zeroBuf:  make([]float64, spec.Bins()),
		now:      time.Now,
	}, nil
}

// Feed consumes a block of mono PCM samples in [-1, 1]. Whenever a full
// window is buffered it is analyzed and a snapshot published; the buffer then
// advances by the hop size so consecutive windows overlap. Empty blocks are
// dropped and logged rather than treated as fatal.
func (a *Analyzer) Feed(samples []float64) {
	if len(samples) == 0 {
		log.Debugf("analysis: dropping empty sample block")
		return
	}

	a.buf = append(a.buf, samples...)

	for len(a.buf) >= a.cfg.FFTSize {
		a.analyzeFrame(a.buf[:a.cfg.FFTSize])
		a.buf = a.buf[:copy(a.buf, a.buf[a.cfg.HopSize:])]
	}
}

func (a *Analyzer) analyzeFrame(frame []float64) {
	now := a.now()

	if rms(frame) < a.cfg.GateThreshold {
		// Below the gate there is nothing to spend an FFT on, but the bands
		// must still decay toward zero and the snapshot must stay fresh.
		b := a.bands.Process(a.zeroBuf)
		a.publish(b, false, now)
		return
	}

	magnitudes := a.spectrum.Process(frame)
	rawLow := a.bands.RawLow(magnitudes)
	b := a.bands.Process(magnitudes)
	beat := a.beat.Detect(rawLow, now)

	a.publish(b, beat, now)
}

func (a *Analyzer) publish(b Bands, beat bool, now time.Time) {
	a.cell.Store(Snapshot{
		Low:     b.Low,
		Mid:     b.Mid,
		High:    b.High,
		Overall: b.Overall,
		Beat:    beat,
		Time:    now,
	})

	a.frames++
	if a.frames%512 == 0 {
		log.Debugf("analysis: frame %d low=%.2f mid=%.2f high=%.2f beat=%v",
			a.frames, b.Low, b.Mid, b.High, beat)
	}
}

func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}
