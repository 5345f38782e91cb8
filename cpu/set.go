// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import (
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"code.hybscloud.com/pktq/internal/ring"
)

// Set is a fixed group of CPUs.
type Set struct {
	cfg  Config
	cpus []*CPU

	mu       sync.RWMutex // write-held only by Close
	closed   bool
	stop     chan struct{}
	wg       sync.WaitGroup
	softints map[*Softint]struct{}
}

// CPU is one member of a Set.
type CPU struct {
	_      [64]byte
	active atomix.Bool   // executing work on the CPU goroutine
	goid   atomix.Uint64 // CPU goroutine id, for off-CPU assertions
	_      [64]byte

	id    int
	set   *Set
	high  ring.Queue[*call]
	low   ring.Queue[*call]
	softq ring.Queue[*Softint]
	wake  chan struct{}
}

type call struct {
	fn   func(c *CPU)
	done *sync.WaitGroup
}

// NewSet starts the CPU goroutines of a Set.
//
// With cfg.Affinity, a failure to bind any CPU goroutine stops the whole Set
// and returns the combined errors.
func NewSet(cfg Config) (*Set, error) {
	cfg.applyDefaults()
	s := &Set{
		cfg:      cfg,
		cpus:     make([]*CPU, cfg.NumCPU),
		stop:     make(chan struct{}),
		softints: map[*Softint]struct{}{},
	}
	for i := range s.cpus {
		s.cpus[i] = &CPU{
			id:    i,
			set:   s,
			high:  ring.Build[*call](ring.New(cfg.CallQueue).SingleConsumer().Compact()),
			low:   ring.Build[*call](ring.New(cfg.CallQueue).SingleConsumer().Compact()),
			softq: ring.Build[*Softint](ring.New(2 * cfg.MaxSoftints).SingleConsumer().Compact()),
			wake:  make(chan struct{}, 1),
		}
	}

	started := make(chan error, len(s.cpus))
	s.wg.Add(len(s.cpus))
	for _, c := range s.cpus {
		go c.loop(started)
	}
	var err error
	for range s.cpus {
		err = multierr.Append(err, <-started)
	}
	if err != nil {
		s.Close()
		return nil, err
	}

	logger.Debug("cpu set started", zap.Int("ncpu", len(s.cpus)), zap.Bool("affinity", cfg.Affinity))
	return s, nil
}

// NumCPU returns the number of CPUs.
func (s *Set) NumCPU() int {
	return len(s.cpus)
}

// CPU returns the CPU with the given index.
func (s *Set) CPU(id int) *CPU {
	return s.cpus[id]
}

// Close stops every CPU goroutine after it has run the cross-calls already
// submitted. Scheduled softints that have not started are abandoned.
// Close is idempotent.
func (s *Set) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// OnCPU reports whether the caller is running on one of the Set's CPU
// goroutines. It inspects the goroutine id and is meant for assertions on
// slow paths only.
func (s *Set) OnCPU() bool {
	id := goid()
	for _, c := range s.cpus {
		if c.goid.LoadAcquire() == id {
			return true
		}
	}
	return false
}

// ID returns the index of the CPU in its Set.
func (c *CPU) ID() int {
	return c.id
}

// Set returns the Set the CPU belongs to.
func (c *CPU) Set() *Set {
	return c.set
}

// Running reports whether the CPU goroutine is currently executing a softint
// handler or a cross-call.
func (c *CPU) Running() bool {
	return c.active.Load()
}

// IsCurrent reports whether the caller is running on c's goroutine while c
// executes a softint handler or a cross-call. The goroutine id comparison is
// only made when c is active.
func (c *CPU) IsCurrent() bool {
	return c.active.Load() && c.goid.LoadAcquire() == goid()
}

func (c *CPU) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *CPU) loop(started chan<- error) {
	defer c.set.wg.Done()
	c.goid.StoreRelease(goid())

	if c.set.cfg.Affinity {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := setAffinity(c.id); err != nil {
			started <- err
			return
		}
	}
	started <- nil

	for {
		if c.runOnce() {
			continue
		}
		select {
		case <-c.wake:
		case <-c.set.stop:
			c.drainCalls()
			return
		}
	}
}

// runOnce runs all high priority calls, then at most one softint and one low
// priority call. It reports whether anything ran.
func (c *CPU) runOnce() (ran bool) {
	for {
		x, err := c.high.Dequeue()
		if err != nil {
			break
		}
		c.exec(x)
		ran = true
	}
	if si, err := c.softq.Dequeue(); err == nil {
		si.run(c)
		ran = true
	}
	if x, err := c.low.Dequeue(); err == nil {
		c.exec(x)
		ran = true
	}
	return ran
}

func (c *CPU) drainCalls() {
	for _, q := range []ring.Queue[*call]{c.high, c.low} {
		for {
			x, err := q.Dequeue()
			if err != nil {
				break
			}
			c.exec(x)
		}
	}
}

func (c *CPU) exec(x *call) {
	c.active.Store(true)
	defer func() {
		c.active.Store(false)
		x.done.Done()
	}()
	x.fn(c)
}

func (c *CPU) submit(q ring.Queue[*call], x *call) {
	backoff := iox.Backoff{}
	for q.Enqueue(&x) != nil {
		c.notify()
		backoff.Wait()
	}
	c.notify()
}
