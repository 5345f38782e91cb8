// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pktq provides per-CPU packet dispatch queues.
//
// A [Queue] hands packets from producers (receive paths, packet steering) to
// a protocol input handler that runs as a deferred dispatch routine on a
// [cpu.CPU]. Each CPU owns one bounded multi-producer single-consumer ring;
// the hot path takes no lock.
//
// # Quick Start
//
//	set, _ := cpu.NewSet(cpu.Config{})
//	q, _ := pktq.New(set, pktq.Config{Name: "ip", Capacity: 256},
//	    func(q *pktq.Queue, c *cpu.CPU) {
//	        for pkt := q.Dequeue(c); pkt != nil; pkt = q.Dequeue(c) {
//	            input(pkt)
//	        }
//	    })
//	defer q.Close()
//
//	sel := rps.NewSelector(nil)
//	if !q.Enqueue(pkt, sel.Hash(set, pkt)) {
//	    pkt.Free() // dropped: ring full
//	}
//
// # Handler Contract
//
// The handler runs on the CPU its softint was scheduled on and must keep
// calling [Queue.Dequeue] until it returns nil. A handler that stops early
// (to bound its batch) must call [Queue.Reschedule] so the rest, including
// any barrier marker, is still processed.
//
// # Administration
//
// [Queue.Barrier] waits until everything enqueued before the call has been
// dequeued. [Queue.Flush] discards queued packets. [Queue.SetCapacity]
// replaces every ring without losing packets. [Queue.Stat] and
// [Queue.Stats] fold the per-CPU counters. [IfDetach] barriers every queue
// of the default [Registry] so that an interface can be torn down once no
// queued packet refers to it.
//
// Administrative calls may sleep and must not be made from a CPU goroutine;
// doing so panics.
package pktq

import "code.hybscloud.com/pktq/internal/logging"

var logger = logging.New("pktq")
