// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rps

import "encoding/binary"

// RSSKey is the Microsoft RSS default secret key.
var RSSKey = [40]byte{
	0x6d, 0x5a, 0x56, 0xda, 0x25, 0x5b, 0x0e, 0xc2,
	0x41, 0x67, 0x25, 0x3d, 0x43, 0xa3, 0x8f, 0xb0,
	0xd0, 0xca, 0x2b, 0xcb, 0xae, 0x7b, 0x30, 0xb4,
	0x77, 0xcb, 0x2d, 0xa3, 0x80, 0x30, 0xf2, 0x0c,
	0x6a, 0x42, 0xb7, 0x3b, 0xbe, 0xac, 0x01, 0xfa,
}

// ToeplitzHash computes the Toeplitz hash of data under key.
//
// For every set bit of data, the 32-bit key window starting at that bit
// position is XORed into the result. key must be at least 4 bytes; past its
// end the window is filled with zero bits.
func ToeplitzHash(key, data []byte) (h uint32) {
	v := binary.BigEndian.Uint32(key)
	for i, b := range data {
		var next byte
		if i+4 < len(key) {
			next = key[i+4]
		}
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				h ^= v
			}
			v = v<<1 | uint32(next>>bit&1)
		}
	}
	return h
}
