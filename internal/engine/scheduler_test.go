// SPDX-License-Identifier: MIT
package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auralight/internal/analysis"
	"auralight/internal/config"
	"auralight/internal/layout"
	"auralight/internal/pattern"
	"auralight/internal/transport"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Layout.Left = 2
	cfg.Layout.Right = 2
	cfg.Layout.Top = 1
	cfg.Engine.UpdateRate = 200
	cfg.Engine.TeardownMs = 500
	return cfg
}

func testScheduler(t *testing.T, cfg *config.Config, client transport.Client, initial pattern.Name) *Scheduler {
	t.Helper()
	l := layout.Build(cfg.Layout)
	patterns := pattern.NewEngine(l, cfg.Pattern, initial)
	var cell analysis.Cell
	return New(l, patterns, &cell, client, cfg)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// countingClient tracks per-handle update counts and tolerates concurrent
// reads from the test goroutine.
type countingClient struct {
	mu      sync.Mutex
	created int
	updates map[transport.Handle]int
	removed int
}

func newCountingClient() *countingClient {
	return &countingClient{updates: make(map[transport.Handle]int)}
}

func (c *countingClient) CreateLight(layout.Light) (transport.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
	return transport.Handle(c.created - 1), nil
}

func (c *countingClient) UpdateLight(h transport.Handle, _ transport.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates[h]++
	return nil
}

func (c *countingClient) RemoveLight(transport.Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed++
	return nil
}

func (c *countingClient) Close() error { return nil }

func (c *countingClient) totalUpdates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.updates {
		n += v
	}
	return n
}

func (c *countingClient) counts() (created, removed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created, c.removed
}

// failingClient fails a chosen subset of operations.
type failingClient struct {
	countingClient
	failCreateAfter int // fail CreateLight once this many have succeeded
	failRemove      bool
}

func (c *failingClient) CreateLight(l layout.Light) (transport.Handle, error) {
	c.mu.Lock()
	created := c.created
	c.mu.Unlock()
	if created >= c.failCreateAfter {
		return 0, errors.New("host rejected the slot")
	}
	return c.countingClient.CreateLight(l)
}

func (c *failingClient) RemoveLight(h transport.Handle) error {
	if c.failRemove {
		return errors.New("connection lost")
	}
	return c.countingClient.RemoveLight(h)
}

func TestRunLifecycle(t *testing.T) {
	cfg := testConfig()
	client := transport.NewRecorder()
	s := testScheduler(t, cfg, client, pattern.Chase)

	if s.State() != StateIdle {
		t.Fatalf("fresh scheduler state = %s, want idle", s.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	total := cfg.TotalLights()
	waitFor(t, 2*time.Second, func() bool {
		return len(client.Created()) == total && s.State() == StateRunning
	}, "scheduler never created all lights and entered running")

	waitFor(t, 2*time.Second, func() bool {
		_, ok := client.LastUpdate(transport.Handle(0))
		return ok
	}, "scheduler never pushed an update")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if s.State() != StateTerminated {
		t.Errorf("state after Run = %s, want terminated", s.State())
	}
	if client.RemovedCount() != total {
		t.Errorf("removed %d lights, want %d", client.RemovedCount(), total)
	}
}

func TestCreateFailureAbortsAndCleansUp(t *testing.T) {
	cfg := testConfig()
	client := &failingClient{countingClient: countingClient{updates: make(map[transport.Handle]int)}, failCreateAfter: 2}
	s := testScheduler(t, cfg, client, pattern.Chase)

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded despite a create failure")
	}
	if s.State() != StateTerminated {
		t.Errorf("state after failed start = %s, want terminated", s.State())
	}
	created, removed := client.counts()
	if created != 2 || removed != 2 {
		t.Errorf("created %d removed %d, want both 2", created, removed)
	}
}

func TestRunRejectsSecondStart(t *testing.T) {
	cfg := testConfig()
	s := testScheduler(t, cfg, transport.NewRecorder(), pattern.Chase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("first Run returned %v", err)
	}
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("second Run succeeded, want error")
	}
}

func TestPatternSwitchAppliesOnNextTick(t *testing.T) {
	cfg := testConfig()
	client := transport.NewRecorder()
	s := testScheduler(t, cfg, client, pattern.Chase)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return s.State() == StateRunning },
		"scheduler never entered running")

	if s.Active() != pattern.Chase {
		t.Fatalf("initial pattern = %s, want chase", s.Active())
	}
	s.RequestPattern(pattern.BassFlood)
	waitFor(t, 2*time.Second, func() bool { return s.Active() == pattern.BassFlood },
		"pattern switch never applied")

	cancel()
	<-done
}

func TestDiffSuppressesRedundantUpdates(t *testing.T) {
	cfg := testConfig()
	client := newCountingClient()
	// all_on is static under silence, so after the first tick nothing changes.
	s := testScheduler(t, cfg, client, pattern.AllOn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	total := cfg.TotalLights()
	waitFor(t, 2*time.Second, func() bool { return client.totalUpdates() >= total },
		"first tick never pushed all lights")

	// Let a good number of further ticks pass.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if got := client.totalUpdates(); got != total {
		t.Errorf("static pattern sent %d updates, want exactly %d (one per light)", got, total)
	}
}

func TestTeardownSurvivesFailingTransport(t *testing.T) {
	cfg := testConfig()
	client := &failingClient{countingClient: countingClient{updates: make(map[transport.Handle]int)}, failCreateAfter: 1 << 30, failRemove: true}
	s := testScheduler(t, cfg, client, pattern.Chase)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return s.State() == StateRunning },
		"scheduler never entered running")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil despite removal failures", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("teardown hung on a failing transport")
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %s, want terminated", s.State())
	}
}

func TestStateStrings(t *testing.T) {
	want := map[State]string{
		StateIdle:       "idle",
		StateRunning:    "running",
		StateStopping:   "stopping",
		StateTerminated: "terminated",
		State(99):       "unknown",
	}
	for state, name := range want {
		if state.String() != name {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), name)
		}
	}
}
