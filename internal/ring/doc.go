// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides the bounded lock-free rings behind pktq.
//
// Every CPU slot of a packet queue owns one ring. Producers on any goroutine
// push into it; only the goroutine of the owning CPU pops from it. The
// builder selects the algorithm from those constraints:
//
//	r := ring.Build[Entry](ring.New(256).SingleConsumer())            // → MPSC
//	r := ring.Build[Entry](ring.New(256).SingleConsumer().Compact())  // → MPSCSeq
//	r := ring.Build[*Packet](ring.New(4096))                          // → MPMC
//
// # Algorithms
//
// Default (FAA-based, 2n slots for capacity n):
//
//	MPSC: FAA producers, sequential consumer
//	MPMC: FAA-based SCQ algorithm
//
// With Compact() (CAS-based, n slots for capacity n):
//
//	MPSC: CAS producers, sequential consumer
//
// Capacity rounds up to the next power of 2. Minimum capacity is 2.
//
// # Error Handling
//
// Rings return [ErrWouldBlock] when an operation cannot proceed: Enqueue on a
// full ring, Dequeue on an empty one. The error is sourced from
// [code.hybscloud.com/iox]; it is a control flow signal, not a failure.
//
//	backoff := iox.Backoff{}
//	for r.Enqueue(&e) != nil {
//	    backoff.Wait()
//	}
//
// # Emptiness
//
// Length is not provided. [Queue.Empty] answers the only question the
// administrative paths ask ("is there anything to quiesce?") from the two
// indices. Called off the consumer goroutine the answer is a hint: it may
// report non-empty for a slot a producer has claimed but not yet published.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships established
// through acquire-release orderings on separate variables. Tests that hammer
// the generic rings concurrently are excluded via [RaceEnabled].
package ring
