// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Softint is a deferred dispatch handle: a handler that can be scheduled to
// run soon on a specific CPU.
type Softint struct {
	set     *Set
	fn      func(c *CPU)
	pending []pendingFlag
	dead    atomix.Bool
}

type pendingFlag struct {
	v atomix.Uint64
	_ [56]byte
}

// Establish registers fn as a softint handler.
func (s *Set) Establish(fn func(c *CPU)) (*Softint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.softints) >= s.cfg.MaxSoftints {
		return nil, ErrTooManySoftints
	}
	si := &Softint{
		set:     s,
		fn:      fn,
		pending: make([]pendingFlag, len(s.cpus)),
	}
	s.softints[si] = struct{}{}
	return si, nil
}

// Schedule arranges for the handler to run on CPU id. Scheduling a softint
// that is already pending on that CPU is a no-op; the pending state is
// cleared just before the handler starts, so a Schedule issued while the
// handler runs leads to exactly one more invocation.
//
// Schedule never blocks and may be called from any goroutine.
func (si *Softint) Schedule(id int) {
	p := &si.pending[id].v
	if p.LoadAcquire() != 0 || !p.CompareAndSwapAcqRel(0, 1) {
		return
	}
	c := si.set.cpus[id]
	sw := spin.Wait{}
	for c.softq.Enqueue(&si) != nil {
		sw.Once()
	}
	c.notify()
}

// Pending reports whether the handler is scheduled but not yet started on CPU id.
func (si *Softint) Pending(id int) bool {
	return si.pending[id].v.LoadAcquire() != 0
}

// Disestablish unregisters the handler. Invocations already running finish;
// pending ones are skipped. Disestablish waits until no CPU still holds a
// pending entry for the softint and must not be called from a CPU goroutine.
func (si *Softint) Disestablish() {
	if si.dead.Load() {
		return
	}
	si.dead.Store(true)

	s := si.set
	if s.OnCPU() {
		panic("cpu: Disestablish from a CPU goroutine")
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if !closed {
		// A running handler holds its CPU; the barrier waits for it to return.
		s.Barrier()
		backoff := iox.Backoff{}
		for id := range si.pending {
			for si.Pending(id) {
				backoff.Wait()
			}
		}
	}

	s.mu.Lock()
	delete(s.softints, si)
	s.mu.Unlock()
}

func (si *Softint) run(c *CPU) {
	si.pending[c.id].v.StoreRelease(0)
	if si.dead.Load() {
		return
	}
	c.active.Store(true)
	defer c.active.Store(false)
	si.fn(c)
}
