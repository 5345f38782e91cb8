// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cpu

import "errors"

var (
	// ErrClosed is returned when establishing work on a closed Set.
	ErrClosed = errors.New("cpu: set closed")

	// ErrTooManySoftints is returned by Establish when the Set has no free
	// softint slot.
	ErrTooManySoftints = errors.New("cpu: too many softints")
)
