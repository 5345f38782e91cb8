// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package cpu

// setAffinity is a no-op where thread affinity is not supported; the CPU
// goroutine is still locked to its OS thread.
func setAffinity(int) error {
	return nil
}
