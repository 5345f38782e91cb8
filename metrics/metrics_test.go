// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"strings"
	"testing"

	"code.hybscloud.com/atomix"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"code.hybscloud.com/pktq"
	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/metrics"
	"code.hybscloud.com/pktq/packet"
)

func TestCollector(t *testing.T) {
	set, err := cpu.NewSet(cpu.Config{NumCPU: 2})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	defer set.Close()

	reg := &pktq.Registry{}
	var drain atomix.Bool
	q, err := pktq.New(set, pktq.Config{Name: "ip", Capacity: 2, Registry: reg}, func(q *pktq.Queue, c *cpu.CPU) {
		if drain.Load() {
			for q.Dequeue(c) != nil {
			}
		}
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range 3 {
		q.Enqueue(packet.New(nil, i, 0), 1)
	}

	c := metrics.NewCollector(reg)
	const want = `
# HELP pktq_capacity Per-CPU ring capacity.
# TYPE pktq_capacity gauge
pktq_capacity{name="ip"} 2
# HELP pktq_cpu_length Packets waiting in one CPU's ring.
# TYPE pktq_cpu_length gauge
pktq_cpu_length{cpu="0",name="ip"} 0
pktq_cpu_length{cpu="1",name="ip"} 2
# HELP pktq_drops_total Packets dropped because the ring was full or the queue closed.
# TYPE pktq_drops_total counter
pktq_drops_total{name="ip"} 1
# HELP pktq_enqueued_total Packets accepted by the queue.
# TYPE pktq_enqueued_total counter
pktq_enqueued_total{name="ip"} 2
# HELP pktq_length Packets waiting in the queue.
# TYPE pktq_length gauge
pktq_length{name="ip"} 2
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(want),
		"pktq_capacity", "pktq_cpu_length", "pktq_drops_total", "pktq_enqueued_total", "pktq_length"); err != nil {
		t.Fatal(err)
	}

	drain.Store(true)
	q.Close()
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("metrics after Close: got %d, want 0", n)
	}
}

func TestRegister(t *testing.T) {
	r := prometheus.NewPedanticRegistry()
	if err := r.Register(metrics.NewCollector(nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
