// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package cpu

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinity binds the calling OS thread to host CPU (id % runtime.NumCPU()).
func setAffinity(id int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(id % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("cpu %d: sched_setaffinity: %w", id, err)
	}
	return nil
}
