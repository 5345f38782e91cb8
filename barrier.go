// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"context"
	"fmt"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/internal/ring"
	"code.hybscloud.com/pktq/packet"
)

// spinRounds is how long barrier waits spin before backing off.
const spinRounds = 64

// Barrier returns once every packet enqueued before the call has been
// dequeued, or flushed. It places a marker at the tail of every non-empty
// ring and waits for the handlers to reach them, retrying while a ring is
// full. Handler runs in progress at that point have also returned.
func (q *Queue) Barrier() {
	q.assertOffCPU("Barrier")
	q.adminLock.Lock()
	defer q.adminLock.Unlock()
	_ = q.barrierLocked(context.Background())
}

// BarrierContext is Barrier bounded by ctx while placing markers. When ctx
// ends first no further markers are placed; the call still waits for those
// already placed, then returns an error wrapping ErrBarrierIncomplete and
// ctx.Err().
func (q *Queue) BarrierContext(ctx context.Context) error {
	q.assertOffCPU("BarrierContext")
	q.adminLock.Lock()
	defer q.adminLock.Unlock()
	return q.barrierLocked(ctx)
}

func (q *Queue) barrierLocked(ctx context.Context) (err error) {
	if q.barrierCount.Load() != 0 {
		panic("pktq: barrier already in progress")
	}

	var pending uint64
	incomplete := false
	marker := entry{marker: true}
place:
	for id := range q.slots {
		if ctx.Err() != nil {
			incomplete = true
			break
		}
		r := q.slots[id].cur.Load().ring
		if r.Empty() {
			continue
		}
		backoff := iox.Backoff{}
		for retry := 0; r.Enqueue(&marker) != nil; retry++ {
			if ctx.Err() != nil {
				incomplete = true
				break place
			}
			if retry == 0 {
				logger.Debug("barrier ring full, retrying", zap.String("name", q.cfg.Name), zap.Int("cpu", id))
			}
			q.sih.Schedule(id)
			backoff.Wait()
		}
		pending++
		q.sih.Schedule(id)
	}
	if incomplete {
		err = fmt.Errorf("%w: %w", ErrBarrierIncomplete, ctx.Err())
	}

	q.waitBarrier(pending)
	q.barrierCount.Store(0)
	// Rings skipped as empty may still have a handler run in flight.
	q.set.Barrier()
	return err
}

func (q *Queue) waitBarrier(pending uint64) {
	sw := spin.Wait{}
	for range spinRounds {
		if q.barrierCount.Load() == pending {
			return
		}
		sw.Once()
	}
	backoff := iox.Backoff{}
	for q.barrierCount.Load() != pending {
		backoff.Wait()
	}
}

// Flush discards every queued packet, frees it and returns how many were
// freed. Producers should be stopped first; packets enqueued during Flush may
// or may not be flushed.
func (q *Queue) Flush() int {
	q.assertOffCPU("Flush")
	lists := make([][]*packet.Packet, len(q.slots))

	q.adminLock.Lock()
	// Rings are drained on their own CPUs so no handler is popping meanwhile.
	q.set.BroadcastHigh(func(c *cpu.CPU) {
		id := c.ID()
		s := &q.slots[id]
		r := s.cur.Load().ring
		if d, ok := r.(ring.Drainer); ok && q.closed.Load() {
			d.Drain()
		}
		for {
			e, err := r.Dequeue()
			if err != nil {
				break
			}
			if e.marker {
				continue
			}
			s.dequeued.Add(1)
			lists[id] = append(lists[id], e.pkt)
		}
	})
	q.adminLock.Unlock()

	n := 0
	for _, list := range lists {
		for _, pkt := range list {
			pkt.Free()
		}
		n += len(list)
	}
	if n > 0 {
		logger.Info("queue flushed", zap.String("name", q.cfg.Name), zap.Int("freed", n))
	}
	return n
}
