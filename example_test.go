// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq_test

import (
	"fmt"

	"code.hybscloud.com/pktq"
	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/packet"
	"code.hybscloud.com/pktq/rps"
)

func Example() {
	set, err := cpu.NewSet(cpu.Config{NumCPU: 2})
	if err != nil {
		panic(err)
	}
	defer set.Close()

	handled := make([]int, set.NumCPU())
	q, err := pktq.New(set, pktq.Config{Name: "example", Capacity: 64, Registry: &pktq.Registry{}},
		func(q *pktq.Queue, c *cpu.CPU) {
			for pkt := q.Dequeue(c); pkt != nil; pkt = q.Dequeue(c) {
				handled[c.ID()]++
				pkt.Free()
			}
		})
	if err != nil {
		panic(err)
	}
	defer q.Close()

	sel := rps.NewSelector(nil)
	if err := sel.Set(rps.Zero); err != nil {
		panic(err)
	}
	for range 10 {
		pkt := packet.New(nil, 1, 0)
		if !q.Enqueue(pkt, sel.Hash(set, pkt)) {
			pkt.Free()
		}
	}
	q.Barrier()

	fmt.Println(handled, q.Stats().Dequeued)
	// Output: [10 0] 10
}
