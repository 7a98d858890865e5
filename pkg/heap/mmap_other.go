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

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package heap

import (
	"os"

	"github.com/pkg/errors"
)

var errNoSharedMemory = errors.New("shared memory segments are not supported on this platform")

func mmapFile(*os.File, int) ([]byte, error) {
	return nil, errNoSharedMemory
}

func munmap([]byte) error {
	return errNoSharedMemory
}
