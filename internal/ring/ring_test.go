// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/pktq/internal/ring"
)

// =============================================================================
// Basic Operations
// =============================================================================

func testBasic(t *testing.T, q ring.Queue[int]) {
	t.Helper()

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}
	if !q.Empty() {
		t.Fatalf("Empty on new ring: got false")
	}

	// Enqueue to capacity
	for i := range 4 {
		v := i + 100
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if q.Empty() {
		t.Fatalf("Empty on full ring: got true")
	}

	// Full ring returns ErrWouldBlock
	v := 999
	if err := q.Enqueue(&v); !errors.Is(err, ring.ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}

	// Dequeue in FIFO order
	for i := range 4 {
		val, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.Dequeue(); !ring.IsWouldBlock(err) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
	if !q.Empty() {
		t.Fatalf("Empty after drain: got false")
	}
}

func TestMPSCBasic(t *testing.T) {
	testBasic(t, ring.NewMPSC[int](3))
}

func TestMPSCSeqBasic(t *testing.T) {
	testBasic(t, ring.NewMPSCSeq[int](3))
}

func TestMPMCBasic(t *testing.T) {
	testBasic(t, ring.NewMPMC[int](4))
}

// TestWraparound cycles a tiny ring many times so slot rounds advance.
func TestWraparound(t *testing.T) {
	for name, q := range map[string]ring.Queue[int]{
		"MPSC":    ring.NewMPSC[int](2),
		"MPSCSeq": ring.NewMPSCSeq[int](2),
		"MPMC":    ring.NewMPMC[int](2),
	} {
		t.Run(name, func(t *testing.T) {
			for round := range 100 {
				for i := range 2 {
					v := round*10 + i
					if err := q.Enqueue(&v); err != nil {
						t.Fatalf("round %d: Enqueue(%d): %v", round, i, err)
					}
				}
				for i := range 2 {
					got, err := q.Dequeue()
					if err != nil {
						t.Fatalf("round %d: Dequeue: %v", round, err)
					}
					if want := round*10 + i; got != want {
						t.Fatalf("round %d: got %d, want %d", round, got, want)
					}
				}
			}
		})
	}
}

// TestDequeueClearsSlot verifies popped pointers are not retained by the ring.
func TestDequeueClearsSlot(t *testing.T) {
	q := ring.NewMPSCSeq[*int](2)
	v := 7
	p := &v
	if err := q.Enqueue(&p); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	got, err := q.Dequeue()
	if err != nil || got != p {
		t.Fatalf("Dequeue: got (%p, %v), want (%p, nil)", got, err, p)
	}
	if got, err := q.Dequeue(); got != nil || !ring.IsWouldBlock(err) {
		t.Fatalf("Dequeue on empty: got (%p, %v)", got, err)
	}
}

// =============================================================================
// Builder
// =============================================================================

func TestBuilderSelection(t *testing.T) {
	if _, ok := ring.Build[int](ring.New(8).SingleConsumer()).(*ring.MPSC[int]); !ok {
		t.Errorf("SingleConsumer: want *MPSC")
	}
	if _, ok := ring.Build[int](ring.New(8).SingleConsumer().Compact()).(*ring.MPSCSeq[int]); !ok {
		t.Errorf("SingleConsumer+Compact: want *MPSCSeq")
	}
	if _, ok := ring.Build[int](ring.New(8)).(*ring.MPMC[int]); !ok {
		t.Errorf("default: want *MPMC")
	}
}

func TestCapacityRounding(t *testing.T) {
	cases := []struct{ in, want int }{
		{1, 2}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {1000, 1024}, {ring.MaxCapacity, ring.MaxCapacity},
	}
	for _, c := range cases {
		if got := ring.RoundCapacity(c.in); got != c.want {
			t.Errorf("RoundCapacity(%d): got %d, want %d", c.in, got, c.want)
		}
		if got := ring.New(c.in).Capacity(); got != c.want {
			t.Errorf("New(%d).Capacity(): got %d, want %d", c.in, got, c.want)
		}
	}
}

func TestBuilderPanics(t *testing.T) {
	for _, n := range []int{0, -1, ring.MaxCapacity + 1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d): expected panic", n)
				}
			}()
			ring.New(n)
		}()
	}
}

// =============================================================================
// Concurrency
// =============================================================================

// testMPSCConcurrent runs several producers against one consumer and checks
// every value arrives exactly once and per-producer order is kept.
func testMPSCConcurrent(t *testing.T, q ring.Queue[int]) {
	if ring.RaceEnabled {
		t.Skip("skip: lock-free ring ordering is invisible to the race detector")
	}

	const producers = 4
	const perProducer = 5000

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := range perProducer {
				v := id*100000 + i
				for q.Enqueue(&v) != nil {
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	deadline := time.Now().Add(10 * time.Second)
	backoff := iox.Backoff{}
	for got := 0; got < producers*perProducer; {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: consumed %d/%d", got, producers*perProducer)
		}
		v, err := q.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		id, seq := v/100000, v%100000
		if seq != last[id]+1 {
			t.Fatalf("producer %d: got seq %d after %d", id, seq, last[id])
		}
		last[id] = seq
		got++
	}
	wg.Wait()

	if !q.Empty() {
		t.Fatalf("ring not empty after consuming everything")
	}
}

func TestMPSCConcurrent(t *testing.T) {
	testMPSCConcurrent(t, ring.NewMPSC[int](64))
}

func TestMPSCSeqConcurrent(t *testing.T) {
	testMPSCConcurrent(t, ring.NewMPSCSeq[int](64))
}

// TestMPSCSeqTinyManyProducers stresses the CAS ring with more producers than
// slots, the shape of a per-CPU ring under a packet storm.
func TestMPSCSeqTinyManyProducers(t *testing.T) {
	if ring.RaceEnabled {
		t.Skip("skip: lock-free ring ordering is invisible to the race detector")
	}

	q := ring.NewMPSCSeq[int](2)
	const producers = 16
	const perProducer = 500

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := range perProducer {
				v := id*100000 + i
				for q.Enqueue(&v) != nil {
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	seen := make(map[int]bool, producers*perProducer)
	backoff := iox.Backoff{}
	deadline := time.Now().Add(10 * time.Second)
	for len(seen) < producers*perProducer {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: consumed %d/%d", len(seen), producers*perProducer)
		}
		v, err := q.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		if seen[v] {
			t.Fatalf("duplicate value %d", v)
		}
		seen[v] = true
	}
	wg.Wait()
}

func TestMPMCConcurrent(t *testing.T) {
	if ring.RaceEnabled {
		t.Skip("skip: lock-free ring ordering is invisible to the race detector")
	}

	q := ring.NewMPMC[int](128)
	const producers = 4
	const consumers = 4
	const perProducer = 2000
	total := producers * perProducer

	seen := make([]atomix.Int32, total)
	var consumed atomix.Int64
	var wg sync.WaitGroup

	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := range perProducer {
				v := id*perProducer + i
				for q.Enqueue(&v) != nil {
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	deadline := time.Now().Add(10 * time.Second)
	for range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for consumed.Load() < int64(total) && time.Now().Before(deadline) {
				v, err := q.Dequeue()
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				seen[v].Add(1)
				consumed.Add(1)
			}
		}()
	}
	wg.Wait()

	if d, ok := ring.Queue[int](q).(ring.Drainer); ok {
		d.Drain()
	}
	for {
		v, err := q.Dequeue()
		if err != nil {
			break
		}
		seen[v].Add(1)
	}

	for i := range seen {
		if n := seen[i].Load(); n > 1 {
			t.Fatalf("value %d dequeued %d times", i, n)
		}
	}
}
