// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package packet provides the opaque packet handle carried by dispatch queues
// and a lock-free free-list to recycle them.
package packet

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Packet is a received frame plus its input metadata.
//
// Queues never look into a Packet; only RPS hash functions and protocol
// handlers do.
type Packet struct {
	// Data is the frame, starting at the link layer header.
	Data []byte

	// Ifindex identifies the receiving interface.
	Ifindex int

	// LinkType tells how to decode Data.
	LinkType layers.LinkType

	pool *Pool
}

// New wraps data in a Packet that does not belong to a Pool.
func New(data []byte, ifindex int, linkType layers.LinkType) *Packet {
	return &Packet{Data: data, Ifindex: ifindex, LinkType: linkType}
}

// Decode decodes the full packet lazily without copying Data.
func (pkt *Packet) Decode() gopacket.Packet {
	return gopacket.NewPacket(pkt.Data, pkt.LinkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
}

// Free releases the packet. A pooled packet goes back to its Pool; others are
// left to the garbage collector. The packet must not be used afterwards.
func (pkt *Packet) Free() {
	if pkt == nil {
		return
	}
	if p := pkt.pool; p != nil {
		p.Put(pkt)
	}
}
