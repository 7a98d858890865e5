// Copyright 2026 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux && (amd64 || arm64)

package signal

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Shared (non-private) futex operations: signal words live in mappings
// shared between processes.
const (
	futexWait = 0
	futexWake = 1
)

// sleep waits on the futex of addr while it still holds cur, at most timeout.
// Spurious wakeups are fine, callers always re-check the word.
func sleep(addr *int32, cur int32, timeout time.Duration) {
	if atomic.LoadInt32(addr) != cur {
		return
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), futexWait, uintptr(uint32(cur)),
		uintptr(unsafe.Pointer(&ts)), 0, 0)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR, unix.ETIMEDOUT:
	default:
		// fall back to plain sleeping, e.g. for mappings without futex support
		time.Sleep(timeout)
	}
}

// wake wakes all waiters sleeping on the futex of addr.
func wake(addr *int32) {
	unix.Syscall6(unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), futexWake, uintptr(^uint32(0)>>1),
		0, 0, 0)
}
