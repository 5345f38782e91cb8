// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/internal/ring"
	"code.hybscloud.com/pktq/packet"
)

// Handler is the protocol input routine of a Queue. It runs on CPU c whenever
// packets were enqueued for c.
type Handler func(q *Queue, c *cpu.CPU)

// entry is a ring element: a packet or a barrier marker.
type entry struct {
	pkt    *packet.Packet
	marker bool
}

// gen is one ring generation. Producers hold writers while pushing so that a
// resize knows when nobody can still push into a replaced ring.
type gen struct {
	ring    ring.Queue[entry]
	writers atomix.Int64
}

// slot is the per-CPU state of a Queue.
type slot struct {
	_   [64]byte
	cur atomic.Pointer[gen]

	enqueued atomix.Uint64
	dequeued atomix.Uint64
	dropped  atomix.Uint64
	_        [64]byte
}

// Queue is a per-CPU packet dispatch queue.
type Queue struct {
	cfg     Config
	set     *cpu.Set
	handler Handler
	slots   []slot
	sih     *cpu.Softint

	adminLock    sync.Mutex // serializes Barrier, Flush and SetCapacity
	capacity     atomix.Int64
	barrierCount atomix.Uint64

	closed    atomix.Bool
	closeOnce sync.Once
}

// New creates a Queue on set whose packets are processed by handler.
//
// The queue joins cfg.Registry and stays there until Close.
func New(set *cpu.Set, cfg Config, handler Handler) (*Queue, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	q := &Queue{
		cfg:     cfg,
		set:     set,
		handler: handler,
		slots:   make([]slot, set.NumCPU()),
	}
	capacity := ring.RoundCapacity(cfg.Capacity)
	q.capacity.Store(int64(capacity))
	for i, g := range q.newGens(capacity) {
		q.slots[i].cur.Store(g)
	}

	sih, err := set.Establish(q.softint)
	if err != nil {
		return nil, err
	}
	q.sih = sih

	if err := cfg.Registry.Register(q); err != nil {
		sih.Disestablish()
		return nil, err
	}

	logger.Info("queue created",
		zap.String("name", cfg.Name),
		zap.Int("capacity", capacity),
		zap.Int("ncpu", len(q.slots)),
		zap.String("ring", string(cfg.Ring)),
	)
	return q, nil
}

func (q *Queue) newGens(capacity int) []*gen {
	gens := make([]*gen, len(q.slots))
	for i := range gens {
		gens[i] = &gen{ring: ring.Build[entry](q.cfg.builder(capacity))}
	}
	return gens
}

func (q *Queue) softint(c *cpu.CPU) {
	q.handler(q, c)
}

// Name returns the configured name.
func (q *Queue) Name() string {
	return q.cfg.Name
}

// CPUSet returns the CPUs the queue dispatches to.
func (q *Queue) CPUSet() *cpu.Set {
	return q.set
}

// Capacity returns the effective per-CPU ring capacity.
func (q *Queue) Capacity() int {
	return int(q.capacity.Load())
}

// Close removes the queue from its Registry, waits for queued packets to be
// processed, frees whatever is left and stops the handler. The CPU set must
// still be open. Close is idempotent.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		q.assertOffCPU("Close")
		q.closed.Store(true)
		q.cfg.Registry.Unregister(q)
		q.Barrier()
		n := q.Flush()
		q.sih.Disestablish()
		logger.Info("queue closed", zap.String("name", q.cfg.Name), zap.Int("flushed", n))
	})
	return nil
}

// Enqueue places pkt on the ring of CPU (hash % NumCPU) and schedules the
// handler there. It never blocks.
//
// On false the packet was dropped (ring full or queue closed) and still
// belongs to the caller.
func (q *Queue) Enqueue(pkt *packet.Packet, hash uint32) bool {
	id := int(hash % uint32(len(q.slots)))
	s := &q.slots[id]
	if q.closed.Load() {
		s.dropped.Add(1)
		return false
	}

	var g *gen
	for {
		g = s.cur.Load()
		g.writers.Add(1)
		if s.cur.Load() == g {
			break
		}
		g.writers.Add(-1)
	}
	e := entry{pkt: pkt}
	err := g.ring.Enqueue(&e)
	g.writers.Add(-1)

	if err != nil {
		s.dropped.Add(1)
		return false
	}
	s.enqueued.Add(1)
	q.sih.Schedule(id)
	return true
}

// Dequeue removes the next packet from the ring of CPU c, or returns nil when
// the ring is empty.
//
// Dequeue must run on c: in the handler or in a cross-call on c. Barrier
// markers are consumed here and never returned.
func (q *Queue) Dequeue(c *cpu.CPU) *packet.Packet {
	if c.Set() != q.set || !c.IsCurrent() {
		panic("pktq: Dequeue off its CPU")
	}
	s := &q.slots[c.ID()]
	r := s.cur.Load().ring

	e, err := r.Dequeue()
	if err != nil {
		return nil
	}
	if e.marker {
		q.barrierCount.Add(1)
		if e, err = r.Dequeue(); err != nil {
			return nil
		}
		if e.marker {
			panic("pktq: consecutive barrier markers")
		}
	}
	s.dequeued.Add(1)
	return e.pkt
}

// Reschedule makes the handler run again on c. A handler that returns before
// Dequeue reported empty calls it to get the rest processed.
func (q *Queue) Reschedule(c *cpu.CPU) {
	q.sih.Schedule(c.ID())
}

func (q *Queue) assertOffCPU(op string) {
	if q.set.OnCPU() {
		panic("pktq: " + op + " from a CPU goroutine")
	}
}
