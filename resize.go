// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"context"

	"code.hybscloud.com/iox"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/internal/ring"
)

// SetCapacity replaces every per-CPU ring with one of capacity n, rounded up
// to a power of two. Queued packets move to the new rings; none is dropped,
// though packets enqueued around the swap may be reordered.
//
// SetCapacity returns ErrInvalidCapacity without changing anything when n is
// not in [1, MaxCapacity], and does nothing when the rounded capacity is the
// current one.
func (q *Queue) SetCapacity(n int) error {
	if err := validCapacity(n); err != nil {
		return err
	}
	q.assertOffCPU("SetCapacity")
	capacity := ring.RoundCapacity(n)
	if capacity == q.Capacity() {
		return nil
	}
	gens := q.newGens(capacity)

	q.adminLock.Lock()
	defer q.adminLock.Unlock()
	oldCapacity := q.Capacity()
	if capacity == oldCapacity {
		return nil
	}

	// Swap on each CPU so no handler is in the middle of the old ring.
	olds := make([]*gen, len(q.slots))
	q.set.BroadcastHigh(func(c *cpu.CPU) {
		olds[c.ID()] = q.slots[c.ID()].cur.Swap(gens[c.ID()])
	})
	q.capacity.Store(int64(capacity))

	backoff := iox.Backoff{}
	for _, old := range olds {
		for old.writers.Load() != 0 {
			backoff.Wait()
		}
		backoff.Reset()
	}
	_ = q.barrierLocked(context.Background())

	moved := 0
	for id, old := range olds {
		moved += q.requeue(id, old, gens[id])
	}

	logger.Info("queue resized",
		zap.String("name", q.cfg.Name),
		zap.Int("from", oldCapacity),
		zap.Int("to", capacity),
		zap.Int("moved", moved),
	)
	return nil
}

// requeue moves every entry of old into cur, waiting for the handler of
// CPU id to make room when cur is full.
func (q *Queue) requeue(id int, old, cur *gen) (n int) {
	if d, ok := old.ring.(ring.Drainer); ok {
		d.Drain()
	}
	backoff := iox.Backoff{}
	for {
		e, err := old.ring.Dequeue()
		if err != nil {
			break
		}
		for retry := 0; cur.ring.Enqueue(&e) != nil; retry++ {
			if retry == 0 {
				logger.Debug("resize ring full, retrying", zap.String("name", q.cfg.Name), zap.Int("cpu", id))
			}
			q.sih.Schedule(id)
			backoff.Wait()
		}
		backoff.Reset()
		n++
	}
	if n > 0 {
		q.sih.Schedule(id)
	}
	return n
}
