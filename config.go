// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"fmt"

	"code.hybscloud.com/pktq/internal/ring"
)

const (
	// DefaultCapacity is the default per-CPU ring capacity.
	DefaultCapacity = 256

	// MaxCapacity is the largest per-CPU ring capacity.
	MaxCapacity = ring.MaxCapacity
)

// RingKind selects the per-CPU ring algorithm.
type RingKind string

const (
	// RingCompact is the CAS-based ring with n slots. It stays exact with any
	// number of producers racing on a tiny ring.
	RingCompact RingKind = "compact"

	// RingFAA is the FAA-based ring with 2n slots. It scales better under
	// heavy producer contention.
	RingFAA RingKind = "faa"
)

// Config contains Queue configuration.
type Config struct {
	// Name identifies the queue in its Registry and in metrics.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Capacity is the per-CPU ring capacity, default DefaultCapacity.
	// It rounds up to a power of two.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`

	// Ring selects the ring algorithm, default RingCompact.
	Ring RingKind `json:"ring,omitempty" yaml:"ring,omitempty"`

	// Registry the queue joins, default DefaultRegistry.
	Registry *Registry `json:"-" yaml:"-"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Ring == "" {
		cfg.Ring = RingCompact
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry
	}
}

func (cfg Config) validate() error {
	if err := validCapacity(cfg.Capacity); err != nil {
		return err
	}
	switch cfg.Ring {
	case RingCompact, RingFAA:
		return nil
	}
	return fmt.Errorf("%w %q", ErrInvalidRing, cfg.Ring)
}

func validCapacity(n int) error {
	if n <= 0 || n > MaxCapacity {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, n)
	}
	return nil
}

func (cfg Config) builder(capacity int) *ring.Builder {
	b := ring.New(capacity).SingleConsumer()
	if cfg.Ring == RingCompact {
		b = b.Compact()
	}
	return b
}
