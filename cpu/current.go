// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import _ "unsafe"

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()

// Pin disables preemption of the calling goroutine and returns the CPU it
// runs on: the index of its runtime P folded onto NumCPU. Every Pin must be
// paired with Unpin, and the caller must not block in between.
func (s *Set) Pin() int {
	return runtime_procPin() % len(s.cpus)
}

// Unpin re-enables preemption after Pin.
func (s *Set) Unpin() {
	runtime_procUnpin()
}

// Current returns the CPU the caller is running on. The goroutine may migrate
// right after the call returns, so the result is a placement hint.
func (s *Set) Current() int {
	id := s.Pin()
	s.Unpin()
	return id
}
