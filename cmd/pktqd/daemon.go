// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"code.hybscloud.com/pktq"
	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/metrics"
	"code.hybscloud.com/pktq/packet"
	"code.hybscloud.com/pktq/rps"
)

// family is one protocol's dispatch queue and its steering selector.
type family struct {
	cfg      QueueConfig
	queue    *pktq.Queue
	selector *rps.Selector

	// delivered counts packets the protocol input handler consumed.
	delivered atomix.Uint64

	producers []*producer
}

// produced sums what the producers of f enqueued and had rejected.
func (f *family) produced() (sent, dropped uint64) {
	for _, p := range f.producers {
		sent += p.sent.Load()
		dropped += p.dropped.Load()
	}
	return sent, dropped
}

// input stands in for a protocol input routine: it consumes and frees
// every queued packet.
func (f *family) input(q *pktq.Queue, c *cpu.CPU) {
	for pkt := q.Dequeue(c); pkt != nil; pkt = q.Dequeue(c) {
		f.delivered.Add(1)
		pkt.Free()
	}
}

type daemon struct {
	cfg      Config
	set      *cpu.Set
	reg      *pktq.Registry
	pool     *packet.Pool
	families map[string]*family
	order    []string
	prom     *prometheus.Registry
}

func newDaemon(cfg Config) (d *daemon, err error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	d = &daemon{
		cfg:      cfg,
		reg:      &pktq.Registry{},
		families: map[string]*family{},
		prom:     prometheus.NewRegistry(),
	}
	if d.set, err = cpu.NewSet(cfg.CPU); err != nil {
		return nil, err
	}
	d.pool = packet.NewPool(cfg.PoolCapacity, cfg.bufSize())

	for _, qc := range cfg.Queues {
		f := &family{cfg: qc, selector: rps.NewSelector(nil)}
		if err := f.selector.Set(cfg.RPSHash); err != nil {
			return nil, multierr.Append(err, d.Close())
		}
		qcfg := qc.Config
		qcfg.Registry = d.reg
		if f.queue, err = pktq.New(d.set, qcfg, f.input); err != nil {
			return nil, multierr.Append(err, d.Close())
		}
		d.families[qc.Name] = f
		d.order = append(d.order, qc.Name)
	}

	d.prom.MustRegister(metrics.NewCollector(d.reg))
	logger.Info("daemon ready",
		zap.Int("ncpu", d.set.NumCPU()),
		zap.Strings("queues", d.order),
		zap.String("rps-hash", cfg.RPSHash),
	)
	return d, nil
}

// Run serves HTTP on ln and runs the producers until ctx is canceled.
func (d *daemon) Run(ctx context.Context, ln net.Listener) error {
	producers, err := d.producers()
	if err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{Handler: d.handler(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	for _, p := range producers {
		g.Go(func() error { return p.run(ctx, d) })
	}
	if len(producers) > 0 {
		logger.Info("producers started", zap.Int("count", len(producers)), zap.Float64("rate", d.cfg.Traffic.Rate))
	}

	err = g.Wait()
	for _, name := range d.order {
		if len(d.families[name].producers) == 0 {
			continue
		}
		sent, dropped := d.families[name].produced()
		logger.Info("producers stopped", zap.String("queue", name), zap.Uint64("sent", sent), zap.Uint64("dropped", dropped))
	}
	return err
}

func (d *daemon) producers() (list []*producer, err error) {
	t := d.cfg.Traffic
	if t.Rate <= 0 {
		return nil, nil
	}
	for _, name := range d.order {
		f := d.families[name]
		frames, err := frameTemplates(f.cfg.Family, t.Flows, t.PacketSize)
		if err != nil {
			return nil, err
		}
		for range t.Producers {
			p := &producer{fam: f, frames: frames, limiter: rate.NewLimiter(rate.Limit(t.Rate), t.Burst)}
			f.producers = append(f.producers, p)
			list = append(list, p)
		}
	}
	return list, nil
}

// Close stops every queue, then the CPUs.
func (d *daemon) Close() (err error) {
	for _, name := range d.order {
		err = multierr.Append(err, d.families[name].queue.Close())
	}
	if d.set != nil {
		err = multierr.Append(err, d.set.Close())
	}
	return err
}
