// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"fmt"

	"code.hybscloud.com/pktq/cpu"
)

// StatKind selects a counter for Stat.
type StatKind int

// Stat kinds.
const (
	StatLength StatKind = iota
	StatDrops
	StatCapacity
	StatEnqueued
	StatDequeued
)

func (k StatKind) String() string {
	switch k {
	case StatLength:
		return "length"
	case StatDrops:
		return "drops"
	case StatCapacity:
		return "capacity"
	case StatEnqueued:
		return "enqueued"
	case StatDequeued:
		return "dequeued"
	}
	return fmt.Sprintf("StatKind(%d)", int(k))
}

// Stats contains queue counters.
type Stats struct {
	// Length is the number of queued packets.
	Length uint64 `json:"length"`
	// Capacity is the ring capacity.
	Capacity uint64 `json:"capacity"`
	// Drops counts packets rejected by Enqueue.
	Drops uint64 `json:"drops"`
	// Enqueued counts packets accepted by Enqueue.
	Enqueued uint64 `json:"enqueued"`
	// Dequeued counts packets removed by Dequeue or Flush.
	Dequeued uint64 `json:"dequeued"`
}

func (st *Stats) add(o Stats) {
	st.Drops += o.Drops
	st.Enqueued += o.Enqueued
	st.Dequeued += o.Dequeued
}

func (st *Stats) fixLength() {
	// A producer counts after its push, so the consumer may count first.
	if st.Enqueued > st.Dequeued {
		st.Length = st.Enqueued - st.Dequeued
	} else {
		st.Length = 0
	}
}

// Stat returns one counter. Every kind but StatCapacity is summed over the
// CPUs, each read on its own CPU.
func (q *Queue) Stat(kind StatKind) uint64 {
	if kind == StatCapacity {
		return uint64(q.Capacity())
	}
	st := q.Stats()
	switch kind {
	case StatLength:
		return st.Length
	case StatDrops:
		return st.Drops
	case StatEnqueued:
		return st.Enqueued
	case StatDequeued:
		return st.Dequeued
	}
	panic(fmt.Sprintf("pktq: unknown %v", kind))
}

// Stats returns every counter, summed over the CPUs.
func (q *Queue) Stats() (st Stats) {
	for _, p := range q.PerCPU() {
		st.add(p)
	}
	st.Capacity = uint64(q.Capacity())
	st.fixLength()
	return st
}

// PerCPU returns the counters of each CPU.
func (q *Queue) PerCPU() []Stats {
	q.assertOffCPU("Stat")
	list := make([]Stats, len(q.slots))
	capacity := uint64(q.Capacity())
	q.set.Broadcast(func(c *cpu.CPU) {
		s := &q.slots[c.ID()]
		st := &list[c.ID()]
		st.Capacity = capacity
		st.Drops = s.dropped.Load()
		st.Enqueued = s.enqueued.Load()
		st.Dequeued = s.dequeued.Load()
		st.fixLength()
	})
	return list
}
