// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rps implements receive packet steering hash functions.
//
// A hash function maps a packet to a 32-bit value; a dispatch queue takes it
// modulo the number of CPUs to pick the CPU that processes the packet.
// Functions are registered by name in a [Table]; a [Selector] holds the one in
// effect for a protocol family and may be switched at runtime.
//
// Built-in functions:
//
//	zero                every packet goes to CPU 0
//	curcpu              the CPU the producer runs on (default)
//	toeplitz            Toeplitz hash of the flow tuple with the Microsoft RSS key
//	toeplitz-othercpus  like toeplitz, never the producer's own CPU
//	xxhash              xxHash64 of the flow tuple, folded to 32 bits
package rps

import "code.hybscloud.com/pktq/internal/logging"

var logger = logging.New("rps")
