// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import "sync"

// Broadcast runs fn once on every CPU at low priority and waits until all
// have finished. A CPU runs the call between softint invocations, so a busy
// softint handler delays it.
//
// Broadcast must not be called from a CPU goroutine.
func (s *Set) Broadcast(fn func(c *CPU)) {
	s.xcall(s.cpus, fn, false)
}

// BroadcastHigh runs fn once on every CPU ahead of any scheduled softint and
// waits until all have finished.
//
// BroadcastHigh must not be called from a CPU goroutine.
func (s *Set) BroadcastHigh(fn func(c *CPU)) {
	s.xcall(s.cpus, fn, true)
}

// Unicast runs fn on one CPU at high priority and waits for it.
func (s *Set) Unicast(id int, fn func(c *CPU)) {
	s.xcall(s.cpus[id:id+1], fn, true)
}

// Barrier waits until every CPU has finished the work it was running when
// Barrier was called. It is a high priority broadcast of nothing.
func (s *Set) Barrier() {
	s.BroadcastHigh(func(*CPU) {})
}

func (s *Set) xcall(targets []*CPU, fn func(c *CPU), high bool) {
	if s.OnCPU() {
		panic("cpu: cross-call from a CPU goroutine")
	}

	var done sync.WaitGroup
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		panic(ErrClosed)
	}
	done.Add(len(targets))
	x := &call{fn: fn, done: &done}
	for _, c := range targets {
		if high {
			c.submit(c.high, x)
		} else {
			c.submit(c.low, x)
		}
	}
	s.mu.RUnlock()
	done.Wait()
}
