// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"code.hybscloud.com/pktq"
	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/packet"
	"code.hybscloud.com/pktq/rps"
)

// Family is the network protocol a queue carries.
type Family string

// Families.
const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// QueueConfig describes one dispatch queue.
type QueueConfig struct {
	pktq.Config `yaml:",inline"`

	// Family selects the synthetic traffic, default by name: "ip6" is IPv6,
	// anything else IPv4.
	Family Family `yaml:"family,omitempty"`
}

// TrafficConfig describes the synthetic producers.
type TrafficConfig struct {
	// Producers is the number of producer goroutines per queue.
	Producers int `yaml:"producers"`

	// Rate is packets per second per producer; 0 disables producers.
	Rate float64 `yaml:"rate"`

	// Burst is the rate limiter burst.
	Burst int `yaml:"burst"`

	// Flows is the number of distinct flow tuples generated.
	Flows int `yaml:"flows"`

	// PacketSize is the UDP payload length.
	PacketSize int `yaml:"packet-size"`
}

// Config is the pktqd configuration file.
type Config struct {
	Listen  string        `yaml:"listen"`
	CPU     cpu.Config    `yaml:"cpu"`
	Queues  []QueueConfig `yaml:"queues"`
	RPSHash string        `yaml:"rps-hash"`
	Traffic TrafficConfig `yaml:"traffic"`

	// PoolCapacity is the number of cached packet buffers.
	PoolCapacity int `yaml:"pool-capacity"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:9180"
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []QueueConfig{
			{Config: pktq.Config{Name: "ip"}},
			{Config: pktq.Config{Name: "ip6"}},
		}
	}
	for i := range cfg.Queues {
		qc := &cfg.Queues[i]
		if qc.Family == "" {
			qc.Family = FamilyIPv4
			if qc.Name == "ip6" {
				qc.Family = FamilyIPv6
			}
		}
	}
	if cfg.RPSHash == "" {
		cfg.RPSHash = rps.Default
	}

	t := &cfg.Traffic
	if t.Producers <= 0 {
		t.Producers = 1
	}
	if t.Burst <= 0 {
		t.Burst = 32
	}
	if t.Flows <= 0 {
		t.Flows = 64
	}
	if t.PacketSize <= 0 {
		t.PacketSize = 64
	}
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = 4096
	}
}

func (cfg Config) validate() error {
	if _, ok := rps.DefaultTable.Lookup(cfg.RPSHash); !ok {
		return fmt.Errorf("%w %q", rps.ErrUnknownHash, cfg.RPSHash)
	}
	if cfg.PoolCapacity > packet.MaxCapacity {
		return fmt.Errorf("pool-capacity %d exceeds %d", cfg.PoolCapacity, packet.MaxCapacity)
	}
	for _, qc := range cfg.Queues {
		if qc.Name == "" {
			return fmt.Errorf("queue without name")
		}
		switch qc.Family {
		case FamilyIPv4, FamilyIPv6:
		default:
			return fmt.Errorf("queue %q: unknown family %q", qc.Name, qc.Family)
		}
	}
	return nil
}

// frameOverhead is the largest header stack of a synthetic frame:
// Ethernet, IPv6 and UDP.
const frameOverhead = 14 + 40 + 8

// bufSize is the pool buffer length that fits every synthetic frame.
func (cfg Config) bufSize() int {
	return max(2048, cfg.Traffic.PacketSize+frameOverhead)
}

// loadConfig reads a YAML file; an empty filename yields the defaults.
func loadConfig(filename string) (cfg Config, err error) {
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return cfg, nil
}
