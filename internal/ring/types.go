// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

// Queue is the combined producer-consumer interface for a bounded ring.
//
// Enqueue and Dequeue never block. Both return ErrWouldBlock when they cannot
// proceed (ring full or empty).
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
	Empty() bool
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying; the ring stores a copy
// of the pointed-to value.
type Producer[T any] interface {
	// Enqueue adds an element to the ring (non-blocking).
	// Returns nil on success, ErrWouldBlock if the ring is full.
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The slot is cleared on Dequeue so that referenced objects can be collected.
type Consumer[T any] interface {
	// Dequeue removes and returns an element (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if the ring is empty.
	//
	// MPSC rings allow a single consumer only.
	Dequeue() (T, error)
}

// Drainer signals that no more enqueues will occur.
//
// FAA-based rings implement this interface. After Drain, Dequeue ignores the
// livelock threshold (MPMC) and steps over positions that producers claimed
// and then abandoned (MPSC), so remaining items can be taken out completely.
type Drainer interface {
	Drain()
}
