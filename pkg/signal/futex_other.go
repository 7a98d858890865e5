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

//go:build !linux || !(amd64 || arm64)

package signal

import (
	"time"
)

// sleep polls; without futexes a wakeup can't cut the sleep short.
func sleep(addr *int32, cur int32, timeout time.Duration) {
	if Load(addr) != cur {
		return
	}
	time.Sleep(timeout)
}

func wake(addr *int32) {}
