// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package packet

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/pktq/internal/ring"
)

// MaxCapacity is the largest number of packets a Pool caches.
const MaxCapacity = ring.MaxCapacity

// Pool recycles packets through a bounded lock-free free-list.
//
// Get and Put may be called from any number of goroutines. When the free-list
// is empty Get allocates; when it is full Put drops the packet for the
// garbage collector.
type Pool struct {
	free    ring.Queue[*Packet]
	bufSize int

	inUse  atomix.Int64
	allocs atomix.Uint64
}

// NewPool creates a Pool caching up to capacity packets, each with a buffer
// of bufSize bytes. It panics if capacity is not in [1, MaxCapacity].
func NewPool(capacity, bufSize int) *Pool {
	return &Pool{
		free:    ring.Build[*Packet](ring.New(capacity)),
		bufSize: bufSize,
	}
}

// Get returns a packet with Data resliced to the full buffer and cleared
// metadata.
func (p *Pool) Get() *Packet {
	p.inUse.Add(1)
	pkt, err := p.free.Dequeue()
	if err != nil {
		p.allocs.Add(1)
		return &Packet{Data: make([]byte, p.bufSize), pool: p}
	}
	pkt.Data = pkt.Data[:cap(pkt.Data)]
	pkt.Ifindex = 0
	pkt.LinkType = 0
	return pkt
}

// Put returns pkt to the Pool. pkt must have come from this Pool.
func (p *Pool) Put(pkt *Packet) {
	if pkt.pool != p {
		panic("packet: Put to foreign pool")
	}
	p.inUse.Add(-1)
	_ = p.free.Enqueue(&pkt)
}

// BufSize returns the buffer length of every packet from the Pool.
func (p *Pool) BufSize() int {
	return p.bufSize
}

// InUse returns the number of packets handed out and not yet returned.
func (p *Pool) InUse() int64 {
	return p.inUse.Load()
}

// Allocs returns how many packets the Pool has allocated in total.
func (p *Pool) Allocs() uint64 {
	return p.allocs.Load()
}
