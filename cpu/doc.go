// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cpu models a set of CPUs for per-CPU packet processing in a hosted
// process.
//
// Every [CPU] is one goroutine that runs, in priority order:
//
//   - high priority cross-calls ([Set.BroadcastHigh], [Set.Unicast])
//   - scheduled deferred dispatch handlers ([Softint])
//   - low priority cross-calls ([Set.Broadcast])
//
// Work on one CPU is strictly serialized: a softint handler never runs
// concurrently with itself or with a cross-call on the same CPU, while
// different CPUs run in parallel. That is the property per-CPU data
// structures rely on instead of locks.
//
// Producers are ordinary goroutines. [Set.Pin] disables preemption of the
// calling goroutine and names the CPU it is running on; [Set.Current] is the
// unpinned hint.
//
// With [Config.Affinity] each CPU goroutine is locked to an OS thread bound
// to the matching host CPU (Linux only).
package cpu

import "code.hybscloud.com/pktq/internal/logging"

var logger = logging.New("cpu")
