// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import (
	"runtime"

	"code.hybscloud.com/pktq/internal/ring"
)

const (
	// DefaultMaxSoftints is the default number of softints per Set.
	DefaultMaxSoftints = 64

	// DefaultCallQueue is the default depth of each per-CPU cross-call mailbox.
	DefaultCallQueue = 256
)

// Config contains Set configuration.
type Config struct {
	// NumCPU is the number of CPUs, default runtime.GOMAXPROCS(0).
	NumCPU int `json:"numCPU,omitempty" yaml:"num-cpu,omitempty"`

	// Affinity locks each CPU goroutine to an OS thread and binds it to
	// host CPU (id % runtime.NumCPU()).
	Affinity bool `json:"affinity,omitempty" yaml:"affinity,omitempty"`

	// MaxSoftints limits concurrently established softints, default DefaultMaxSoftints.
	MaxSoftints int `json:"maxSoftints,omitempty" yaml:"max-softints,omitempty"`

	// CallQueue is the per-CPU cross-call mailbox depth, default DefaultCallQueue.
	// Broadcasters wait for room when it is full.
	CallQueue int `json:"callQueue,omitempty" yaml:"call-queue,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.NumCPU <= 0 {
		cfg.NumCPU = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxSoftints <= 0 {
		cfg.MaxSoftints = DefaultMaxSoftints
	}
	if cfg.CallQueue <= 0 {
		cfg.CallQueue = DefaultCallQueue
	}
	cfg.MaxSoftints = min(cfg.MaxSoftints, ring.MaxCapacity/2)
	cfg.CallQueue = min(cfg.CallQueue, ring.MaxCapacity)
}
