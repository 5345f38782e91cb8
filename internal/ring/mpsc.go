// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPSC is an FAA-based multi-producer single-consumer bounded ring.
//
// Producers use FAA to blindly claim positions (SCQ-style), requiring 2n
// physical slots for capacity n.
//
// Memory: 2n slots for capacity n (16+ bytes per slot)
type MPSC[T any] struct {
	_        pad
	head     atomix.Uint64 // Consumer index (single consumer writes, but producers read)
	_        pad
	tail     atomix.Uint64 // Producer index (FAA)
	_        pad
	draining atomix.Bool // Drain mode: no more enqueues
	_        pad
	buffer   []mpscSlot[T]
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type mpscSlot[T any] struct {
	cycle atomix.Uint64 // Round number
	data  T
	_     padShort
}

// NewMPSC creates a new FAA-based MPSC ring.
// Capacity rounds up to the next power of 2.
func NewMPSC[T any](capacity int) *MPSC[T] {
	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &MPSC[T]{
		buffer:   make([]mpscSlot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}

	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return q
}

// Drain signals that no more enqueues will occur.
func (q *MPSC[T]) Drain() {
	q.draining.StoreRelease(true)
}

// Enqueue adds an element to the ring (multiple producers safe).
// Returns ErrWouldBlock if the ring is full.
func (q *MPSC[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		myTail := q.tail.AddAcqRel(1) - 1

		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity

		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = *elem
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
//
// After Drain, positions claimed by producers that gave up on a full ring
// are skipped instead of blocking the consumer.
func (q *MPSC[T]) Dequeue() (T, error) {
	var zero T
	for {
		head := q.head.LoadRelaxed()
		cycle := head / q.capacity
		slot := &q.buffer[head&q.mask]

		slotCycle := slot.cycle.LoadAcquire()
		nextEnqCycle := (head + q.size) / q.capacity

		if slotCycle == cycle+1 {
			elem := slot.data
			slot.data = zero
			slot.cycle.StoreRelease(nextEnqCycle)
			q.head.StoreRelease(head + 1)
			return elem, nil
		}

		if slotCycle != cycle || !q.draining.LoadAcquire() || q.tail.LoadAcquire() <= head {
			return zero, ErrWouldBlock
		}
		slot.cycle.StoreRelease(nextEnqCycle)
		q.head.StoreRelease(head + 1)
	}
}

// Empty reports whether no position has been claimed past the consumer.
func (q *MPSC[T]) Empty() bool {
	head := q.head.LoadAcquire()
	return q.tail.LoadAcquire() <= head
}

// Cap returns the ring capacity.
func (q *MPSC[T]) Cap() int {
	return int(q.capacity)
}
