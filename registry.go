// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Registry is a set of live queues.
type Registry struct {
	mu     sync.RWMutex
	queues []*Queue
}

// DefaultRegistry is the Registry queues join unless Config.Registry is set.
var DefaultRegistry = &Registry{}

// Register adds q. A non-empty name must be unique within the Registry.
func (reg *Registry) Register(q *Queue) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if name := q.Name(); name != "" {
		if slices.ContainsFunc(reg.queues, func(o *Queue) bool { return o.Name() == name }) {
			return fmt.Errorf("%w %q", ErrDuplicateName, name)
		}
	}
	reg.queues = append(reg.queues, q)
	return nil
}

// Unregister removes q, if present.
func (reg *Registry) Unregister(q *Queue) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.queues = slices.DeleteFunc(reg.queues, func(o *Queue) bool { return o == q })
}

// Len returns the number of registered queues.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.queues)
}

// Lookup finds a queue by name.
func (reg *Registry) Lookup(name string) *Queue {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if i := slices.IndexFunc(reg.queues, func(o *Queue) bool { return o.Name() == name }); i >= 0 {
		return reg.queues[i]
	}
	return nil
}

// Each calls fn on every queue in registration order, holding the Registry
// read lock. fn must not register or unregister queues.
func (reg *Registry) Each(fn func(q *Queue)) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, q := range reg.queues {
		fn(q)
	}
}

// IfDetach barriers every registered queue. Once it returns, no packet that
// was queued before the call is still waiting in any queue, so an interface
// that stopped receiving can be torn down.
func (reg *Registry) IfDetach() {
	n := 0
	reg.Each(func(q *Queue) {
		q.Barrier()
		n++
	})
	logger.Debug("registry quiesced", zap.Int("queues", n))
}

// IfDetach barriers every queue of DefaultRegistry.
func IfDetach() {
	DefaultRegistry.IfDetach()
}
