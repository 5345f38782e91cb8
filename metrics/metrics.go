// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports dispatch queue counters to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/pktq"
)

// Collector implements prometheus.Collector, folding the counters of every
// queue in a Registry on each scrape.
type Collector struct {
	reg *pktq.Registry

	length   *prometheus.Desc
	capacity *prometheus.Desc
	drops    *prometheus.Desc
	enqueued *prometheus.Desc
	dequeued *prometheus.Desc
	cpuLen   *prometheus.Desc
}

// NewCollector creates a Collector over reg, DefaultRegistry if nil.
func NewCollector(reg *pktq.Registry) *Collector {
	if reg == nil {
		reg = pktq.DefaultRegistry
	}
	return &Collector{
		reg: reg,

		length: prometheus.NewDesc(
			"pktq_length",
			"Packets waiting in the queue.",
			[]string{"name"}, nil,
		),
		capacity: prometheus.NewDesc(
			"pktq_capacity",
			"Per-CPU ring capacity.",
			[]string{"name"}, nil,
		),
		drops: prometheus.NewDesc(
			"pktq_drops_total",
			"Packets dropped because the ring was full or the queue closed.",
			[]string{"name"}, nil,
		),
		enqueued: prometheus.NewDesc(
			"pktq_enqueued_total",
			"Packets accepted by the queue.",
			[]string{"name"}, nil,
		),
		dequeued: prometheus.NewDesc(
			"pktq_dequeued_total",
			"Packets removed from the queue by handlers or flush.",
			[]string{"name"}, nil,
		),
		cpuLen: prometheus.NewDesc(
			"pktq_cpu_length",
			"Packets waiting in one CPU's ring.",
			[]string{"name", "cpu"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.length
	ch <- c.capacity
	ch <- c.drops
	ch <- c.enqueued
	ch <- c.dequeued
	ch <- c.cpuLen
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Each(func(q *pktq.Queue) {
		c.collectQueue(ch, q)
	})
}

func (c *Collector) collectQueue(ch chan<- prometheus.Metric, q *pktq.Queue) {
	name := q.Name()
	var total pktq.Stats
	for id, st := range q.PerCPU() {
		total.Length += st.Length
		total.Drops += st.Drops
		total.Enqueued += st.Enqueued
		total.Dequeued += st.Dequeued
		ch <- prometheus.MustNewConstMetric(c.cpuLen, prometheus.GaugeValue,
			float64(st.Length), name, strconv.Itoa(id))
	}

	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(total.Length), name)
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(q.Capacity()), name)
	ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(total.Drops), name)
	ch <- prometheus.MustNewConstMetric(c.enqueued, prometheus.CounterValue, float64(total.Enqueued), name)
	ch <- prometheus.MustNewConstMetric(c.dequeued, prometheus.CounterValue, float64(total.Dequeued), name)
}
