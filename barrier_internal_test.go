// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"testing"

	"code.hybscloud.com/pktq/cpu"
)

func newIdleQueue(t *testing.T) *Queue {
	t.Helper()
	set, err := cpu.NewSet(cpu.Config{NumCPU: 2})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	t.Cleanup(func() { set.Close() })
	q, err := New(set, Config{Capacity: 4, Registry: &Registry{}}, func(*Queue, *cpu.CPU) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestBarrierInProgressPanics(t *testing.T) {
	q := newIdleQueue(t)
	q.barrierCount.Store(1)
	defer q.barrierCount.Store(0)

	defer func() {
		if recover() == nil {
			t.Fatalf("Barrier with markers outstanding: did not panic")
		}
	}()
	q.Barrier()
}

func TestConsecutiveMarkersPanic(t *testing.T) {
	q := newIdleQueue(t)
	r := q.slots[0].cur.Load().ring
	for range 2 {
		if err := r.Enqueue(&entry{marker: true}); err != nil {
			t.Fatalf("Enqueue marker: %v", err)
		}
	}

	panicked := false
	q.set.Unicast(0, func(c *cpu.CPU) {
		defer func() { panicked = recover() != nil }()
		q.Dequeue(c)
	})
	q.barrierCount.Store(0)
	if !panicked {
		t.Fatalf("Dequeue over two markers: did not panic")
	}
	if !r.Empty() {
		t.Fatalf("ring not empty after both markers were popped")
	}
}
