// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/log"
)

// FileSource replays a WAV file into the analyzer at real-time pace, looping
// when it reaches the end. Useful for demos and for tuning patterns against a
// known track without a microphone.
type FileSource struct {
	path     string
	cfg      config.AudioConfig
	analyzer *analysis.Analyzer

	samples    []float64
	sampleRate int

	stop chan struct{}
	done chan struct{}
}

var _ Source = (*FileSource)(nil)

// NewFile decodes the whole WAV file up front, downmixed to mono float64 in
// [-1,1].
func NewFile(path string, cfg config.AudioConfig, analyzer *analysis.Analyzer) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode %s: %w", path, err)
	}

	samples := downmix(buf)
	if len(samples) == 0 {
		return nil, fmt.Errorf("audio: %s contains no samples", path)
	}

	rate := buf.Format.SampleRate
	if float64(rate) != cfg.SampleRate {
		log.Warnf("WAV sample rate %d differs from configured %.0f; band edges will shift",
			rate, cfg.SampleRate)
	}

	return &FileSource{
		path:       path,
		cfg:        cfg,
		analyzer:   analyzer,
		samples:    samples,
		sampleRate: rate,
	}, nil
}

// downmix averages all channels into mono and normalizes to [-1,1] based on
// the source bit depth.
func downmix(buf *audio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		out[i] = sum / float64(channels) / scale
	}
	return out
}

// Start launches the replay goroutine.
func (s *FileSource) Start() error {
	if s.stop != nil {
		return fmt.Errorf("audio: file source already started")
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	log.Infof("Replaying %s (%d samples at %d Hz, looping)",
		s.path, len(s.samples), s.sampleRate)
	go s.run()
	return nil
}

// Stop halts the replay goroutine and waits for it to exit.
func (s *FileSource) Stop() error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	return nil
}

// run feeds hop-sized chunks on a ticker so the analyzer sees the track at
// the pace a live capture would deliver it.
func (s *FileSource) run() {
	defer close(s.done)

	hop := s.cfg.HopSize
	interval := time.Duration(float64(hop) / float64(s.sampleRate) * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pos := 0
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			end := pos + hop
			if end > len(s.samples) {
				pos, end = 0, hop
				if end > len(s.samples) {
					end = len(s.samples)
				}
			}
			s.analyzer.Feed(s.samples[pos:end])
			pos = end
		}
	}
}
