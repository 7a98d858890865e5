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

package testutils

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// RunPEs runs fn concurrently for PEs 0..n-1 and waits for all of them.
// It returns the errors of the failed PEs ordered by PE, or nil.
func RunPEs(n int, fn func(pe int) error) error {
	var (
		lock   sync.Mutex
		failed = map[int]error{}
		wg     sync.WaitGroup
	)

	for pe := 0; pe < n; pe++ {
		wg.Add(1)
		go func(pe int) {
			defer wg.Done()
			err := run(pe, fn)
			if err != nil {
				lock.Lock()
				failed[pe] = err
				lock.Unlock()
			}
		}(pe)
	}
	wg.Wait()

	if len(failed) == 0 {
		return nil
	}

	pes := make([]int, 0, len(failed))
	for pe := range failed {
		pes = append(pes, pe)
	}
	sort.Ints(pes)

	var result *multierror.Error
	for _, pe := range pes {
		result = multierror.Append(result, errors.Wrapf(failed[pe], "PE %d", pe))
	}
	return result
}

// run calls fn, turning a panic into an error.
func run(pe int, fn func(int) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(pe)
}
