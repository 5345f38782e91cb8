// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rps

import (
	"encoding/binary"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"code.hybscloud.com/pktq/packet"
)

// flow is the RSS input tuple: source address, destination address, then
// source and destination port when the transport has ports.
type flow struct {
	buf [36]byte
	n   int
}

func (f *flow) bytes() []byte {
	return f.buf[:f.n]
}

func (f *flow) put(b []byte) {
	f.n += copy(f.buf[f.n:], b)
}

func (f *flow) putPorts(src, dst uint16) {
	binary.BigEndian.PutUint16(f.buf[f.n:], src)
	binary.BigEndian.PutUint16(f.buf[f.n+2:], dst)
	f.n += 4
}

type flowParser struct {
	eth     layers.Ethernet
	ip4     layers.IPv4
	ip6     layers.IPv6
	tcp     layers.TCP
	udp     layers.UDP
	decoded []gopacket.LayerType

	ether *gopacket.DecodingLayerParser
	inet4 *gopacket.DecodingLayerParser
	inet6 *gopacket.DecodingLayerParser
}

func newFlowParser() any {
	p := &flowParser{decoded: make([]gopacket.LayerType, 0, 4)}
	dl := []gopacket.DecodingLayer{&p.eth, &p.ip4, &p.ip6, &p.tcp, &p.udp}
	p.ether = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, dl...)
	p.inet4 = gopacket.NewDecodingLayerParser(layers.LayerTypeIPv4, dl...)
	p.inet6 = gopacket.NewDecodingLayerParser(layers.LayerTypeIPv6, dl...)
	for _, dlp := range []*gopacket.DecodingLayerParser{p.ether, p.inet4, p.inet6} {
		dlp.IgnoreUnsupported = true
	}
	return p
}

var flowParsers = sync.Pool{New: newFlowParser}

// extract fills f from the IPv4 or IPv6 header of pkt and its TCP or UDP
// header if present. It reports false for packets that are not IP.
func (f *flow) extract(pkt *packet.Packet) bool {
	p := flowParsers.Get().(*flowParser)
	defer flowParsers.Put(p)

	var dlp *gopacket.DecodingLayerParser
	switch pkt.LinkType {
	case layers.LinkTypeEthernet:
		dlp = p.ether
	case layers.LinkTypeIPv4:
		dlp = p.inet4
	case layers.LinkTypeIPv6:
		dlp = p.inet6
	case layers.LinkTypeRaw:
		if len(pkt.Data) == 0 {
			return false
		}
		if pkt.Data[0]>>4 == 6 {
			dlp = p.inet6
		} else {
			dlp = p.inet4
		}
	default:
		return false
	}

	// Truncated or malformed headers still leave the decoded prefix usable.
	_ = dlp.DecodeLayers(pkt.Data, &p.decoded)

	// The innermost IP header wins for tunneled packets.
	ip := false
	for _, lt := range p.decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			f.n = 0
			f.put(p.ip4.SrcIP.To4())
			f.put(p.ip4.DstIP.To4())
			ip = true
		case layers.LayerTypeIPv6:
			f.n = 0
			f.put(p.ip6.SrcIP.To16())
			f.put(p.ip6.DstIP.To16())
			ip = true
		case layers.LayerTypeTCP:
			f.putPorts(uint16(p.tcp.SrcPort), uint16(p.tcp.DstPort))
			return ip
		case layers.LayerTypeUDP:
			f.putPorts(uint16(p.udp.SrcPort), uint16(p.udp.DstPort))
			return ip
		}
	}
	return ip
}
