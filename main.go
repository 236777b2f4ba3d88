// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"auralight/cmd"
	"auralight/internal/analysis"
	"auralight/internal/audio"
	"auralight/internal/config"
	"auralight/internal/engine"
	"auralight/internal/layout"
	"auralight/internal/log"
	"auralight/internal/pattern"
	"auralight/internal/transport"
	"auralight/internal/tui"
)

// main wires the whole show: configuration, the audio analysis pipeline, the
// pattern engine, the host transport, and the update loop. Startup errors are
// fatal; once the loop is running, transport and audio hiccups are logged and
// survived.
func main() {
	options, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if options.Command == "" {
		// Help or version output already handled by the CLI.
		return
	}

	if options.Command == "list" {
		if err := audio.Initialize(); err != nil {
			log.Fatalf("%v", err)
		}
		defer audio.Terminate()
		if err := audio.ListDevices(); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	cfg, err := config.Load(options.ConfigPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	options.Apply(cfg)

	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}

	// Unknown pattern names are a startup error, never a mid-session one.
	initial, err := pattern.Parse(cfg.Pattern.Default)
	if err != nil {
		log.Fatalf("%v (known patterns: %v)", err, pattern.Names())
	}

	rig := layout.Build(cfg.Layout)
	if rig.Total() == 0 {
		log.Fatalf("layout has no lights; set zone counts, e.g. layout: {left: 5, right: 5, front: 3, back: 2, top: 4}")
	}
	log.Infof("Layout: %d lights across %d zones", rig.Total(), len(layout.Zones()))

	if cfg.Audio.Source == "microphone" {
		if err := audio.Initialize(); err != nil {
			log.Fatalf("%v", err)
		}
		defer audio.Terminate()
	}

	var cell analysis.Cell
	source, err := buildAudio(cfg, &cell)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if source != nil {
		if err := source.Start(); err != nil {
			log.Fatalf("%v", err)
		}
		defer source.Stop()
	}

	var client transport.Client
	if options.DryRun {
		log.Infof("Dry run: no host connection, updates are discarded")
		client = transport.NewRecorder()
	} else {
		client, err = transport.Dial(cfg.HostURL())
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	defer client.Close()

	patterns := pattern.NewEngine(rig, cfg.Pattern, initial)
	scheduler := engine.New(rig, patterns, &cell, client, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- scheduler.Run(ctx) }()

	if options.Headless {
		if err := <-runErr; err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	program := tea.NewProgram(tui.NewControl(scheduler, &cell))
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		log.Errorf("Control screen failed: %v", err)
	}
	cancel()

	if err := <-runErr; err != nil {
		log.Fatalf("%v", err)
	}
}

// buildAudio assembles the analyzer and its sample source. A "none" source
// returns nil: the show runs on the silence fallback.
func buildAudio(cfg *config.Config, cell *analysis.Cell) (audio.Source, error) {
	if cfg.Audio.Source == "none" {
		log.Infof("Audio disabled; patterns run on silence")
		return nil, nil
	}

	window, err := analysis.ParseWindowFunc(cfg.Audio.Window)
	if err != nil {
		return nil, err
	}

	analyzer, err := analysis.New(analysis.Config{
		SampleRate: cfg.Audio.SampleRate,
		FFTSize:    cfg.Audio.FFTSize,
		HopSize:    cfg.Audio.HopSize,
		Window:     window,
		Bands: analysis.BandConfig{
			LowMinHz:  cfg.Analysis.LowMinHz,
			LowMaxHz:  cfg.Analysis.LowMaxHz,
			MidMaxHz:  cfg.Analysis.MidMaxHz,
			HighMaxHz: cfg.Analysis.HighMaxHz,
			NormDecay: cfg.Analysis.NormDecaySeconds,
			Attack:    cfg.Analysis.AttackMs / 1000,
			Decay:     cfg.Analysis.DecayMs / 1000,
		},
		BeatThreshold:  cfg.Analysis.BeatThreshold,
		BeatRefractory: time.Duration(cfg.Analysis.BeatRefractoryMs * float64(time.Millisecond)),
		GateThreshold:  cfg.Analysis.GateThreshold,
	}, cell)
	if err != nil {
		return nil, err
	}

	if cfg.Audio.Source == "microphone" {
		return audio.NewCapture(cfg.Audio, analyzer)
	}

	// Anything else is a WAV file path.
	return audio.NewFile(cfg.Audio.Source, cfg.Audio, analyzer)
}
