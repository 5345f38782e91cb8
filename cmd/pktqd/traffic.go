// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"

	"code.hybscloud.com/atomix"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/time/rate"
)

// frameTemplates builds one Ethernet/IP/UDP frame per flow. Flows differ in
// the UDP source port.
func frameTemplates(family Family, flows, payloadLen int) ([][]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC: net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01},
		DstMAC: net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02},
	}
	var network gopacket.NetworkLayer
	switch family {
	case FamilyIPv4:
		eth.EthernetType = layers.EthernetTypeIPv4
		network = &layers.IPv4{
			Version: 4, TTL: 64, Protocol: layers.IPProtocolUDP,
			SrcIP: net.IPv4(192, 0, 2, 1), DstIP: net.IPv4(198, 51, 100, 1),
		}
	case FamilyIPv6:
		eth.EthernetType = layers.EthernetTypeIPv6
		network = &layers.IPv6{
			Version: 6, HopLimit: 64, NextHeader: layers.IPProtocolUDP,
			SrcIP: net.ParseIP("2001:db8::1"), DstIP: net.ParseIP("2001:db8:1::1"),
		}
	default:
		return nil, errors.New("unknown family")
	}

	payload := gopacket.Payload(make([]byte, payloadLen))
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	frames := make([][]byte, flows)
	for i := range frames {
		udp := &layers.UDP{SrcPort: layers.UDPPort(10000 + i), DstPort: 4789}
		if err := udp.SetNetworkLayerForChecksum(network); err != nil {
			return nil, err
		}
		buf := gopacket.NewSerializeBuffer()
		if err := gopacket.SerializeLayers(buf, opts, eth, network.(gopacket.SerializableLayer), udp, payload); err != nil {
			return nil, err
		}
		frames[i] = buf.Bytes()
	}
	return frames, nil
}

// producer feeds one queue with template frames at a bounded rate.
type producer struct {
	fam     *family
	frames  [][]byte
	limiter *rate.Limiter

	sent    atomix.Uint64
	dropped atomix.Uint64
}

func (p *producer) run(ctx context.Context, d *daemon) error {
	for i := 0; ; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		frame := p.frames[i%len(p.frames)]
		pkt := d.pool.Get()
		pkt.Data = pkt.Data[:copy(pkt.Data, frame)]
		pkt.LinkType = layers.LinkTypeEthernet
		pkt.Ifindex = 1

		if p.fam.queue.Enqueue(pkt, p.fam.selector.Hash(d.set, pkt)) {
			p.sent.Add(1)
		} else {
			p.dropped.Add(1)
			pkt.Free()
		}
	}
}
