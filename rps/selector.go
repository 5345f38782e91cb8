// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rps

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/packet"
)

type selection struct {
	name string
	fn   HashFunc
}

// Selector holds the hash function in effect for one protocol family.
//
// Hash may run concurrently with Set; a producer sees either the old or the
// new function.
type Selector struct {
	table  *Table
	active atomic.Pointer[selection]
}

// NewSelector creates a Selector over table (DefaultTable if nil) using the
// Default function.
func NewSelector(table *Table) *Selector {
	if table == nil {
		table = DefaultTable
	}
	s := &Selector{table: table}
	if err := s.Set(Default); err != nil {
		panic(err)
	}
	return s
}

// Set switches to the function registered as name.
func (s *Selector) Set(name string) error {
	fn, ok := s.table.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownHash, name)
	}
	if old := s.active.Swap(&selection{name: name, fn: fn}); old != nil && old.name != name {
		logger.Info("hash function changed", zap.String("from", old.name), zap.String("to", name))
	}
	return nil
}

// Name returns the name of the active function.
func (s *Selector) Name() string {
	return s.active.Load().name
}

// Table returns the Table names are resolved in.
func (s *Selector) Table() *Table {
	return s.table
}

// Hash computes the steering hash of pkt with the active function.
func (s *Selector) Hash(set *cpu.Set, pkt *packet.Packet) uint32 {
	return s.active.Load().fn(set, pkt)
}
