// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/pktq/cpu"
)

func newSet(t *testing.T, n int) *cpu.Set {
	t.Helper()
	s, err := cpu.NewSet(cpu.Config{NumCPU: n})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	backoff := iox.Backoff{}
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached within 5s")
		}
		backoff.Wait()
	}
}

// =============================================================================
// Set
// =============================================================================

func TestSetDefaults(t *testing.T) {
	s := newSet(t, 0)
	if s.NumCPU() < 1 {
		t.Fatalf("NumCPU: got %d, want >= 1", s.NumCPU())
	}
	for i := range s.NumCPU() {
		c := s.CPU(i)
		if c.ID() != i || c.Set() != s {
			t.Fatalf("CPU(%d): ID=%d Set=%p", i, c.ID(), c.Set())
		}
	}
}

func TestSetCloseIdempotent(t *testing.T) {
	s, err := cpu.NewSet(cpu.Config{NumCPU: 2})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := s.Establish(func(*cpu.CPU) {}); !errors.Is(err, cpu.ErrClosed) {
		t.Fatalf("Establish after Close: got %v, want ErrClosed", err)
	}
}

func TestAffinity(t *testing.T) {
	s, err := cpu.NewSet(cpu.Config{NumCPU: 2, Affinity: true})
	if err != nil {
		t.Skipf("affinity unavailable: %v", err)
	}
	defer s.Close()
	var n atomix.Int32
	s.Broadcast(func(*cpu.CPU) { n.Add(1) })
	if n.Load() != 2 {
		t.Fatalf("Broadcast with affinity: ran %d, want 2", n.Load())
	}
}

func TestCurrent(t *testing.T) {
	s := newSet(t, 3)
	for range 100 {
		if id := s.Current(); id < 0 || id >= 3 {
			t.Fatalf("Current: got %d, want [0,3)", id)
		}
	}
	id := s.Pin()
	s.Unpin()
	if id < 0 || id >= 3 {
		t.Fatalf("Pin: got %d, want [0,3)", id)
	}
}

// =============================================================================
// Cross-calls
// =============================================================================

func TestBroadcastRunsOnEveryCPU(t *testing.T) {
	s := newSet(t, 4)
	var mu sync.Mutex
	seen := map[int]int{}
	for _, fn := range []func(func(*cpu.CPU)){s.Broadcast, s.BroadcastHigh} {
		clear(seen)
		fn(func(c *cpu.CPU) {
			if !c.Running() {
				t.Errorf("CPU %d: Running false inside cross-call", c.ID())
			}
			if !s.OnCPU() {
				t.Errorf("CPU %d: OnCPU false inside cross-call", c.ID())
			}
			mu.Lock()
			seen[c.ID()]++
			mu.Unlock()
		})
		if len(seen) != 4 {
			t.Fatalf("broadcast reached %d CPUs, want 4", len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("CPU %d ran %d times, want 1", id, n)
			}
		}
	}
	if s.OnCPU() {
		t.Fatalf("OnCPU on test goroutine: got true")
	}
}

func TestIsCurrent(t *testing.T) {
	s := newSet(t, 2)
	if s.CPU(0).IsCurrent() {
		t.Fatalf("IsCurrent on an idle CPU: got true")
	}

	release := make(chan struct{})
	busy := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Unicast(1, func(*cpu.CPU) {
			close(busy)
			<-release
		})
	}()
	<-busy
	if s.CPU(1).IsCurrent() {
		t.Fatalf("IsCurrent of a busy CPU from another goroutine: got true")
	}

	var self, other bool
	s.Unicast(0, func(c *cpu.CPU) {
		self = c.IsCurrent()
		other = s.CPU(1).IsCurrent()
	})
	close(release)
	<-done
	if !self || other {
		t.Fatalf("IsCurrent on CPU 0: self=%v other=%v, want true false", self, other)
	}
}

func TestUnicast(t *testing.T) {
	s := newSet(t, 4)
	got := -1
	s.Unicast(2, func(c *cpu.CPU) { got = c.ID() })
	if got != 2 {
		t.Fatalf("Unicast(2): ran on %d", got)
	}
}

func TestBroadcastFromCPUPanics(t *testing.T) {
	s := newSet(t, 1)
	var recovered atomix.Bool
	s.Unicast(0, func(*cpu.CPU) {
		defer func() { recovered.Store(recover() != nil) }()
		s.Broadcast(func(*cpu.CPU) {})
	})
	if !recovered.Load() {
		t.Fatalf("Broadcast from a CPU goroutine did not panic")
	}
}

func TestHighPriorityOvertakesSoftint(t *testing.T) {
	s := newSet(t, 1)
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(what string) {
		mu.Lock()
		order = append(order, what)
		mu.Unlock()
	}

	blocker, err := s.Establish(func(*cpu.CPU) { <-release })
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	soft, err := s.Establish(func(*cpu.CPU) { record("softint") })
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	// Hold the CPU so the next softint and the high call are both queued.
	blocker.Schedule(0)
	waitFor(t, func() bool { return s.CPU(0).Running() })
	soft.Schedule(0)

	done := make(chan struct{})
	go func() {
		s.BroadcastHigh(func(*cpu.CPU) { record("high") })
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	close(release)
	<-done
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	})
	if order[0] != "high" || order[1] != "softint" {
		t.Fatalf("order: got %v, want [high softint]", order)
	}
}

// =============================================================================
// Softints
// =============================================================================

func TestSoftintIdempotentSchedule(t *testing.T) {
	s := newSet(t, 2)
	release := make(chan struct{})
	var calls, running, overlap atomix.Int32
	si, err := s.Establish(func(c *cpu.CPU) {
		if running.Add(1) != 1 {
			overlap.Add(1)
		}
		if calls.Add(1) == 1 {
			<-release
		}
		running.Add(-1)
	})
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	si.Schedule(1)
	waitFor(t, func() bool { return calls.Load() == 1 })
	if si.Pending(1) {
		t.Fatalf("Pending while handler runs: got true")
	}

	// Many schedules while the handler runs collapse into one more call.
	for range 100 {
		si.Schedule(1)
	}
	if !si.Pending(1) {
		t.Fatalf("Pending after Schedule: got false")
	}
	close(release)
	waitFor(t, func() bool { return !si.Pending(1) && !s.CPU(1).Running() })
	s.Barrier()

	if n := calls.Load(); n != 2 {
		t.Fatalf("handler calls: got %d, want 2", n)
	}
	if overlap.Load() != 0 {
		t.Fatalf("handler ran concurrently with itself on one CPU")
	}
}

func TestSoftintRunsOnTargetCPU(t *testing.T) {
	s := newSet(t, 4)
	var hits [4]atomix.Int32
	si, err := s.Establish(func(c *cpu.CPU) { hits[c.ID()].Add(1) })
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	for id := range 4 {
		si.Schedule(id)
		waitFor(t, func() bool { return hits[id].Load() == 1 })
	}
	si.Disestablish()
	si.Disestablish()
}

func TestSoftintDisestablishSkipsPending(t *testing.T) {
	s := newSet(t, 1)
	release := make(chan struct{})
	blocker, _ := s.Establish(func(*cpu.CPU) { <-release })
	var calls atomix.Int32
	si, err := s.Establish(func(*cpu.CPU) { calls.Add(1) })
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	blocker.Schedule(0)
	waitFor(t, func() bool { return s.CPU(0).Running() })
	si.Schedule(0)
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	si.Disestablish()
	if calls.Load() != 0 {
		t.Fatalf("disestablished handler ran %d times", calls.Load())
	}
}

func TestTooManySoftints(t *testing.T) {
	s, err := cpu.NewSet(cpu.Config{NumCPU: 1, MaxSoftints: 2})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer s.Close()
	a, _ := s.Establish(func(*cpu.CPU) {})
	if _, err := s.Establish(func(*cpu.CPU) {}); err != nil {
		t.Fatalf("second Establish: %v", err)
	}
	if _, err := s.Establish(func(*cpu.CPU) {}); !errors.Is(err, cpu.ErrTooManySoftints) {
		t.Fatalf("third Establish: got %v, want ErrTooManySoftints", err)
	}
	a.Disestablish()
	if _, err := s.Establish(func(*cpu.CPU) {}); err != nil {
		t.Fatalf("Establish after Disestablish: %v", err)
	}
}
