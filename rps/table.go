// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rps

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"code.hybscloud.com/pktq/cpu"
	"code.hybscloud.com/pktq/packet"
)

// Names of the built-in hash functions.
const (
	Zero              = "zero"
	CurCPU            = "curcpu"
	Toeplitz          = "toeplitz"
	ToeplitzOtherCPUs = "toeplitz-othercpus"
	XXHash            = "xxhash"

	// Default is the function a new Selector starts with.
	Default = CurCPU
)

var (
	// ErrUnknownHash is returned when selecting a name that is not registered.
	ErrUnknownHash = errors.New("rps: unknown hash function")

	// ErrDuplicateHash is returned when registering a name twice.
	ErrDuplicateHash = errors.New("rps: duplicate hash function")
)

// HashFunc computes the steering hash of pkt on set.
// It is called by producers and must be safe for concurrent use.
type HashFunc func(set *cpu.Set, pkt *packet.Packet) uint32

// Table is a registry of named hash functions.
type Table struct {
	mu    sync.RWMutex
	funcs map[string]HashFunc
	names []string
}

// DefaultTable contains the built-in hash functions.
var DefaultTable = NewTable()

// NewTable creates a Table with the built-in hash functions registered.
func NewTable() *Table {
	t := &Table{funcs: map[string]HashFunc{}}
	t.mustRegister(Zero, hashZero)
	t.mustRegister(CurCPU, hashCurCPU)
	t.mustRegister(Toeplitz, hashToeplitz)
	t.mustRegister(ToeplitzOtherCPUs, hashToeplitzOtherCPUs)
	t.mustRegister(XXHash, hashXXHash)
	return t
}

// Register adds a hash function under name.
func (t *Table) Register(name string, fn HashFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.funcs[name]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateHash, name)
	}
	t.funcs[name] = fn
	t.names = append(t.names, name)
	return nil
}

func (t *Table) mustRegister(name string, fn HashFunc) {
	if err := t.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup finds a hash function by name.
func (t *Table) Lookup(name string) (HashFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns registered names in registration order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.names)
}
