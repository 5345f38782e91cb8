// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

// MaxCapacity is the largest capacity a ring accepts.
const MaxCapacity = 1 << 16

// Options configures ring creation and algorithm selection.
type Options struct {
	singleConsumer bool
	compact        bool // CAS-based, n slots

	// Capacity (rounds up to next power of 2)
	capacity int
}

// Builder creates rings with fluent configuration.
//
// Example:
//
//	r := ring.Build[Entry](ring.New(1024).SingleConsumer())
type Builder struct {
	opts Options
}

// New creates a ring builder with the given capacity.
//
// Capacity rounds up to the next power of 2; 1 rounds up to 2.
// Panics if capacity < 1 or capacity > MaxCapacity.
func New(capacity int) *Builder {
	if capacity < 1 || capacity > MaxCapacity {
		panic("ring: capacity out of range")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleConsumer declares that only one goroutine will dequeue.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Compact selects CAS-based algorithms with n physical slots instead of
// FAA-based algorithms with 2n slots.
//
// Besides halving memory, the CAS-based MPSC never lets a producer claim a
// slot it then has to abandon, so it stays exact under any number of racing
// producers on a tiny ring.
func (b *Builder) Compact() *Builder {
	b.opts.compact = true
	return b
}

// Capacity returns the effective (rounded) capacity the builder produces.
func (b *Builder) Capacity() int {
	return RoundCapacity(b.opts.capacity)
}

// Build creates a Queue[T] with automatic algorithm selection.
//
//	SingleConsumer + Compact → MPSCSeq
//	SingleConsumer           → MPSC
//	otherwise                → MPMC
func Build[T any](b *Builder) Queue[T] {
	switch {
	case b.opts.singleConsumer && b.opts.compact:
		return NewMPSCSeq[T](b.opts.capacity)
	case b.opts.singleConsumer:
		return NewMPSC[T](b.opts.capacity)
	default:
		return NewMPMC[T](b.opts.capacity)
	}
}

// RoundCapacity returns the capacity a ring created with n actually has.
func RoundCapacity(n int) int {
	return roundToPow2(n)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte
