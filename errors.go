// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pktq

import (
	"errors"

	"code.hybscloud.com/iox"
)

var (
	// ErrInvalidCapacity is returned for a ring capacity outside [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("pktq: invalid capacity")

	// ErrInvalidRing is returned for an unknown Config.Ring.
	ErrInvalidRing = errors.New("pktq: invalid ring kind")

	// ErrDuplicateName is returned when a Registry already holds a queue of
	// the same name.
	ErrDuplicateName = errors.New("pktq: duplicate queue name")

	// ErrBarrierIncomplete is returned by BarrierContext when the context
	// ended before every non-empty ring received its marker.
	ErrBarrierIncomplete = errors.New("pktq: barrier incomplete")
)

// IsWouldBlock reports whether err indicates a ring could not proceed.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
