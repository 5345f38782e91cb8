// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rps

import (
	"github.com/cespare/xxhash/v2"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/packet"
)

func hashZero(*cpu.Set, *packet.Packet) uint32 {
	return 0
}

func hashCurCPU(set *cpu.Set, _ *packet.Packet) uint32 {
	return uint32(set.Current())
}

func hashToeplitz(_ *cpu.Set, pkt *packet.Packet) uint32 {
	var f flow
	if !f.extract(pkt) {
		return 0
	}
	return ToeplitzHash(RSSKey[:], f.bytes())
}

// hashToeplitzOtherCPUs spreads flows over every CPU except the producer's.
func hashToeplitzOtherCPUs(set *cpu.Set, pkt *packet.Packet) uint32 {
	n := uint32(set.NumCPU())
	if n == 1 {
		return 0
	}
	return otherCPU(hashToeplitz(set, pkt), n, uint32(set.Current()))
}

// otherCPU maps h onto [0,n) minus cur.
func otherCPU(h, n, cur uint32) uint32 {
	h %= n - 1
	if h >= cur {
		h++
	}
	return h
}

func hashXXHash(_ *cpu.Set, pkt *packet.Packet) uint32 {
	var f flow
	if !f.extract(pkt) {
		return 0
	}
	h := xxhash.Sum64(f.bytes())
	return uint32(h>>32) ^ uint32(h)
}
